package logparser

import (
	"regexp"
	"strconv"
)

// Anchor 的三种错误行:
//
//	AnchorError occurred. Error Code: X. Error Number: N. Error Message: M.
//	AnchorError caused by account: A. Error Code: X. Error Number: N. Error Message: M.
//	AnchorError thrown in programs/foo/src/lib.rs:42. Error Code: X. Error Number: N. Error Message: M.
var anchorErrorRe = regexp.MustCompile(
	`^AnchorError (?:occurred|caused by account: (\S+)|thrown in (\S+))\. ` +
		`Error Code: (\w+)\. Error Number: (\d+)\. Error Message: (.*?)\.?$`)

// ParseAnchorError 解析 "Program log: " 之后的文本，不是 AnchorError 行时返回 nil
func ParseAnchorError(text string) *AnchorLogError {
	m := anchorErrorRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	number, err := strconv.ParseUint(m[4], 10, 32)
	if err != nil {
		return nil
	}
	return &AnchorLogError{
		Account:     m[1],
		Origin:      m[2],
		ErrorCode:   m[3],
		ErrorNumber: uint32(number),
		Message:     m[5],
	}
}
