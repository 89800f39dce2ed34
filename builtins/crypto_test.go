package builtins

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Expected digests computed with the coreutils *sum tools.
func TestDigests(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"crypto.md5", "hello", `"5d41402abc4b2a76b9719d911017c592"`},
		{"crypto.sha1", "hello", `"aaf4c61ddcc5e8a2dabede0f3b482cd9aea9434d"`},
		{"crypto.sha256", "hello", `"2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"`},
		{"crypto.sha512", "hello", `"9b71d224bd62f3785d96d46ad3ea3d73319bfbc2890caadae2dff72519673ca72323c3d99ba5c11d7c7acc6e14b8c5da0c4663475c2e5c3adef46f73bcdec043"`},
		{"crypto.md5", "", `"d41d8cd98f00b204e9800998ecf8427e"`},
		{"crypto.sha256", "", `"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mustCall(t, tt.name, str(tt.in)))
		})
	}
}

// Expected values from RFC 2202 and openssl dgst -hmac.
func TestHMAC(t *testing.T) {
	tests := []struct {
		name string
		msg  string
		key  string
		want string
	}{
		{"crypto.hmac.md5", "Hi There", "\x0b\x0b\x0b\x0b\x0b\x0b\x0b\x0b\x0b\x0b\x0b\x0b\x0b\x0b\x0b\x0b", `"9294727a3638bb1c13f48ef8158bfc9d"`},
		{"crypto.hmac.sha1", "Hi There", "\x0b\x0b\x0b\x0b\x0b\x0b\x0b\x0b\x0b\x0b\x0b\x0b\x0b\x0b\x0b\x0b\x0b\x0b\x0b\x0b", `"b617318655057264e28bc0b6fb378c8ef146be00"`},
		{"crypto.hmac.sha256", "message", "key", `"6e9ef29b75fffc5b7abae527d58fdadb2fe42e7219011976917343065f58ed4a"`},
		{"crypto.hmac.sha512", "message", "key", `"e477384d7ca229dd1426e64b63ebf2d36ebd6d7e669a6735424e72ea6c01d3f8b56eb39c36d8232f5427999b8d1a3f9cd1128fc69f4d75b434216810fa367e98"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mustCall(t, tt.name, str(tt.msg), str(tt.key)))
		})
	}
}
