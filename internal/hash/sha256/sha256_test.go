package sha256

import "testing"

func TestHasherHash(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "empty page", input: "", want: "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"},
		{name: "text", input: "hello world", want: "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"},
	}
	h := New()
	for _, tt := range tests {
		got, err := h.Hash([]byte(tt.input))
		if err != nil {
			t.Fatalf("%s: Hash() error = %v", tt.name, err)
		}
		if got != tt.want {
			t.Fatalf("%s: expected %s, got %s", tt.name, tt.want, got)
		}
	}
}

func TestHasherDistinguishesContent(t *testing.T) {
	t.Parallel()

	h := New()
	a, _ := h.Hash([]byte("<title>v1</title>"))
	b, _ := h.Hash([]byte("<title>v2</title>"))
	if a == b {
		t.Fatal("different pages must produce different digests")
	}
}
