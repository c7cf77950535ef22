package dmg

import (
	"testing"
)

func BenchmarkMachine_RunUntilFrame(b *testing.B) {
	benchmarks := []struct {
		name    string
		program []byte
	}{
		{"idle_loop", loop},
		// fills the tile map with a rolling pattern every iteration
		{"vram_writes", []byte{
			0x21, 0x00, 0x98, // LD HL,0x9800
			0x3C,             // INC A
			0x22,             // LD (HL+),A
			0xCB, 0x6C,       // BIT 5,H
			0x28, 0xFA,       // JR Z,-6
			0x18, 0xF5,       // JR -11
		}},
	}

	for _, bm := range benchmarks {
		b.Run(bm.name, func(b *testing.B) {
			m, err := New(testROM(bm.program, nil), WithLogger(quietLogger()))
			if err != nil {
				b.Fatalf("Failed to create machine: %v", err)
			}

			b.ResetTimer()
			b.ReportAllocs()

			for i := 0; i < b.N; i++ {
				if err := m.RunUntilFrame(); err != nil {
					b.Fatalf("RunUntilFrame failed: %v", err)
				}
			}
		})
	}
}
