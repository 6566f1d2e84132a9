package utils

import (
	"bytes"
	"errors"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

const (
	UTF8  = "UTF8"
	UTF_8 = "UTF-8"
)

var (
	ErrUnknownCharset = errors.New("unknown charset")
)

// 是否为UTF-8（空串视为UTF-8）
func IsUTF8(charset string) bool {
	cs := strings.ToUpper(strings.TrimSpace(charset))
	return cs == "" || cs == UTF_8 || cs == UTF8
}

// 按字符集名称（WHATWG标签，如latin1、windows-1252、gbk）转为UTF-8
func ToUTF8(b []byte, charset string) (d []byte, e error) {
	if IsUTF8(charset) {
		d = b
		return
	}
	enc, e := htmlindex.Get(strings.TrimSpace(charset))
	if e != nil {
		e = errors.Join(ErrUnknownCharset, e)
		return
	}
	d, e = decode(b, enc)
	return
}

func decode(s []byte, enc encoding.Encoding) (d []byte, e error) {
	reader := transform.NewReader(bytes.NewReader(s), enc.NewDecoder())
	d, e = io.ReadAll(reader)
	return
}

// 去除NUL与非法UTF-8字节
func PurifyForUtf8(s string) string {
	return strings.ToValidUTF8(strings.ReplaceAll(s, "\x00", ""), "")
}
