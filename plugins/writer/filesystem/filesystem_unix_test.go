//go:build !windows

package filesystem

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"g2pfixture/pkg/contract"
)

func TestMapPathRejectsEscapesUnix(t *testing.T) {
	flat := false
	w, err := New(&Options{OutputDir: t.TempDir(), Flat: &flat})
	assert.NoError(t, err)
	for _, id := range []string{"/etc/american_test_data.json", "..", ".", "../british_test_data.json"} {
		_, err := w.mapPath(contract.ArtifactID(id))
		assert.ErrorIs(t, err, contract.ErrPathInvalid, id)
	}
}
