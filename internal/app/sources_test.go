package app

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEnumerateSources(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []string{"z.html", "a.HTML", "m.htm", "b.html"} {
		_ = os.WriteFile(filepath.Join(dir, n), []byte("x"), 0o644)
	}
	_ = os.Mkdir(filepath.Join(dir, "sub.html"), 0o755)

	got, err := enumerateSources(Config{InputDir: dir})
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, s := range got {
		names = append(names, s.Name)
	}
	want := []string{"a.HTML", "b.html", "z.html"}
	if len(names) != len(want) {
		t.Fatalf("names = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("names = %v, want %v", names, want)
		}
	}

	urls, _ := enumerateSources(Config{URLs: []string{"https://b", "https://a", "https://B#x"}})
	if len(urls) != 2 || urls[0].Name != "https://b" || !urls[0].IsRemote() {
		t.Fatalf("urls not kept in order: %+v", urls)
	}

	file, _ := enumerateSources(Config{InputFile: filepath.Join(dir, "z.html")})
	if len(file) != 1 || file[0].Name != "z.html" || file[0].IsRemote() {
		t.Fatalf("unexpected file source: %+v", file)
	}
}
