package mtd_test

import (
	"bytes"
	"testing"

	"github.com/distr1/otapatch/internal/mtd"
	"github.com/distr1/otapatch/internal/mtd/mtdtest"
)

func TestWriteToPartitionErasesTail(t *testing.T) {
	var drv mtdtest.Driver
	drv.Set("boot", bytes.Repeat([]byte{0xff}, 16), 4096*4)

	payload := bytes.Repeat([]byte{'B'}, 1024)
	if err := mtd.WriteToPartition(&drv, payload, "MTD:boot:extra:fields:ignored"); err != nil {
		t.Fatalf("WriteToPartition: %v", err)
	}

	got := drv.Contents("boot")
	if !bytes.Equal(got[:1024], payload) {
		t.Fatalf("written bytes mismatch")
	}
	for i, b := range got[1024:] {
		if b != 0 {
			t.Fatalf("byte %d past write not erased: %#x", 1024+i, b)
		}
	}
}

func TestWriteToPartitionUnknownPartition(t *testing.T) {
	var drv mtdtest.Driver
	if err := mtd.WriteToPartition(&drv, []byte("x"), "MTD:missing"); err == nil {
		t.Fatalf("expected error for unknown partition")
	}
}
