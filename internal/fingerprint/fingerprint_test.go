package fingerprint

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"bare domain", "acme.com", "acme.com"},
		{"https scheme", "https://acme.com", "acme.com"},
		{"http scheme", "http://acme.com", "acme.com"},
		{"www prefix", "www.acme.com", "acme.com"},
		{"scheme and www", "https://www.acme.com", "acme.com"},
		{"uppercase", "ACME.COM/", "acme.com"},
		{"mixed case scheme", "HTTPS://WWW.Acme.Com", "acme.com"},
		{"trailing path", "https://www.acme.com/about", "acme.com"},
		{"deep path", "acme.com/a/b/c", "acme.com"},
		{"query without path", "acme.com?utm=x", "acme.com"},
		{"query after path", "acme.com/search?q=1", "acme.com"},
		{"surrounding whitespace", "  acme.com  ", "acme.com"},
		{"subdomain preserved", "https://app.acme.com", "app.acme.com"},
		{"www mid-domain untouched", "notwww.acme.com", "notwww.acme.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

// Variants of the same domain must collapse to one canonical form; the
// collision check depends on this.
func TestNormalizeEquivalenceClass(t *testing.T) {
	t.Parallel()

	variants := []string{
		"https://www.acme.com/about",
		"http://acme.com",
		"ACME.COM/",
		"www.acme.com?ref=email",
		" acme.com/pricing?plan=pro ",
	}
	for _, v := range variants {
		assert.Equal(t, "acme.com", Normalize(v), "variant %q", v)
	}
}

func TestNewHasherRequiresSecret(t *testing.T) {
	t.Parallel()

	_, err := NewHasher("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "secret")

	h, err := NewHasher("test-secret")
	require.NoError(t, err)
	assert.NotNil(t, h)
}

func TestHashDeterministicAndWellFormed(t *testing.T) {
	t.Parallel()

	h, err := NewHasher("test-secret")
	require.NoError(t, err)

	hexRe := regexp.MustCompile(`^[0-9a-f]{64}$`)

	d1 := h.Hash("acme.com")
	d2 := h.Hash("acme.com")
	assert.Equal(t, d1, d2)
	assert.Regexp(t, hexRe, d1)

	// A fresh hasher with the same secret produces the same digest, as a
	// restarted process would.
	h2, err := NewHasher("test-secret")
	require.NoError(t, err)
	assert.Equal(t, d1, h2.Hash("acme.com"))

	// Different inputs and different secrets diverge.
	assert.NotEqual(t, d1, h.Hash("delta.com"))
	h3, err := NewHasher("other-secret")
	require.NoError(t, err)
	assert.NotEqual(t, d1, h3.Hash("acme.com"))
}
