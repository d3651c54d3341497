// Package corpus 定义生成夹具所用的固定样本集。
//
// 样本集随期望输出一起纳入版本控制；顺序有意义（夹具文件按位置保留），
// 但消费方应按 text 匹配而非按下标。
package corpus

import "slices"

// american: 主方言样本集（A 集）。
var american = []string{
	"‘Hello’",
	"‘Test’ and ‘Example’",
	"«Bonjour»",
	"«Test «nested» quotes»",
	"(Hello)",
	"(Nested (Parentheses))",
	"こんにちは、世界！",
	"これはテストです：はい？",
	"Hello World",
	"Hello   World",
	"Hello\n   \nWorld",
	"Dr. Smith",
	"DR. Brown",
	"Mr. Smith",
	"MR. Anderson",
	"Ms. Taylor",
	"MS. Carter",
	"Mrs. Johnson",
	"MRS. Wilson",
	"Apples, oranges, etc.",
	"Apples, etc. Pears.",
	"Yeah",
	"yeah",
	"1990",
	"12:34",
	"2022s",
	"1,000",
	"12,345,678",
	"$100",
	"£1.50",
	"12.34",
	"0.01",
	"10-20",
	"5-10",
	"10S",
	"5S",
	"Cat's tail",
	"X's mark",
	"U.S.A.",
	"A.B.C",
}

// british: 备选方言样本集（B 集），A 集的真子集。
// 去掉区间、数字后缀、年代复数、带点缩写、语气词与 "MRS. Wilson"。
var british = []string{
	"‘Hello’",
	"‘Test’ and ‘Example’",
	"«Bonjour»",
	"«Test «nested» quotes»",
	"(Hello)",
	"(Nested (Parentheses))",
	"こんにちは、世界！",
	"これはテストです：はい？",
	"Hello World",
	"Hello   World",
	"Hello\n   \nWorld",
	"Dr. Smith",
	"DR. Brown",
	"Mr. Smith",
	"MR. Anderson",
	"Ms. Taylor",
	"MS. Carter",
	"Mrs. Johnson",
	"Apples, oranges, etc.",
	"Apples, etc. Pears.",
	"1990",
	"12:34",
	"1,000",
	"12,345,678",
	"$100",
	"£1.50",
	"12.34",
	"0.01",
	"Cat's tail",
	"X's mark",
}

// American 返回 A 集的副本。
func American() []string { return slices.Clone(american) }

// British 返回 B 集的副本。
func British() []string { return slices.Clone(british) }
