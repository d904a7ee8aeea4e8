package space

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSufficientMargin(t *testing.T) {
	cases := []struct {
		free, target uint64
		want         bool
	}{
		{free: 300 << 10, target: 1, want: true},          // passes the floor, trivially passes the margin
		{free: 200 << 10, target: 1, want: false},          // fails the 256KiB floor
		{free: 1 << 20, target: 1 << 20, want: false},       // fails the 1.5x margin
		{free: 16 * (1 << 20) / 10, target: 1 << 20, want: true},
	}
	for _, c := range cases {
		if got := Sufficient(c.free, c.target); got != c.want {
			t.Errorf("Sufficient(%d, %d) = %v, want %v", c.free, c.target, got, c.want)
		}
	}
}

func TestDirEvictorDeletesOldestFirst(t *testing.T) {
	dir, err := ioutil.TempDir("", "space")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	write := func(name string, size int, age time.Duration) {
		p := filepath.Join(dir, name)
		if err := ioutil.WriteFile(p, make([]byte, size), 0644); err != nil {
			t.Fatal(err)
		}
		mtime := time.Now().Add(-age)
		if err := os.Chtimes(p, mtime, mtime); err != nil {
			t.Fatal(err)
		}
	}
	write("oldest", 1024, 3*time.Hour)
	write("middle", 1024, 2*time.Hour)
	write("newest", 1024, 1*time.Hour)

	ev := DirEvictor{ScanDir: dir}
	// Ask for more than statfs will ever report as free on a tiny tmpfs test
	// dir so eviction is forced to run. With a request this large every file
	// is deleted, so this checks that eviction removes the oldest file, not
	// the order of deletion or real disk accounting.
	huge := ^uint64(0) - (1 << 40)
	_ = ev.EnsureFree(dir, huge) // best-effort; free space will still fall short

	if _, err := os.Stat(filepath.Join(dir, "oldest")); !os.IsNotExist(err) {
		t.Fatalf("expected oldest file to be evicted first")
	}
}
