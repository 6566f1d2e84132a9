package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/simplifiedchinese"
)

func TestToUTF8(t *testing.T) {
	src := []byte("Größe")
	d, err := ToUTF8(src, "utf-8")
	require.NoError(t, err)
	assert.Equal(t, src, d)

	latin1, err := charmap.ISO8859_1.NewEncoder().Bytes(src)
	require.NoError(t, err)
	d, err = ToUTF8(latin1, " ISO-8859-1 ")
	require.NoError(t, err)
	assert.Equal(t, "Größe", string(d))

	_, err = ToUTF8(latin1, "klingon")
	assert.ErrorIs(t, err, ErrUnknownCharset)
}

func TestToUTF8Gbk(t *testing.T) {
	gbk, err := simplifiedchinese.GBK.NewEncoder().Bytes([]byte("地块"))
	require.NoError(t, err)
	d, err := ToUTF8(gbk, "gbk")
	require.NoError(t, err)
	assert.Equal(t, "地块", string(d))
}

func TestIsUTF8(t *testing.T) {
	for _, cs := range []string{"", "utf-8", "UTF8", " Utf-8 "} {
		assert.True(t, IsUTF8(cs), cs)
	}
	assert.False(t, IsUTF8("latin1"))
}

func TestPurifyForUtf8(t *testing.T) {
	assert.Equal(t, "ab", PurifyForUtf8("a\x00b\xff"))
}
