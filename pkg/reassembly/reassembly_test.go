package reassembly

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/wirepas/wpc-go/pkg/wpcerr"
)

func TestTakeFull_S2_TwoFragmentReassembly(t *testing.T) {
	// MTU=100, payload length 150, packet_id=42: fragment (src=5, offset=0,
	// size=100, last=false) then (offset=100, size=50, last=true).
	re := New(0)
	first := make([]byte, 100)
	for i := range first {
		first[i] = byte(i)
	}
	second := make([]byte, 50)
	for i := range second {
		second[i] = byte(100 + i)
	}

	full, err := re.AddFragment(FragmentInput{
		SrcAddr: 5, DestAddr: 1, PacketID: 42,
		Offset: 0, Size: 100, LastFragment: false, Bytes: first,
	})
	require.NoError(t, err)
	require.False(t, full)

	full, err = re.AddFragment(FragmentInput{
		SrcAddr: 5, DestAddr: 1, PacketID: 42,
		Offset: 100, Size: 50, LastFragment: true, Bytes: second,
	})
	require.NoError(t, err)
	require.True(t, full)

	assembled, err := re.TakeFull(5, 42)
	require.NoError(t, err)
	require.Len(t, assembled.APDU, 150)
	want := append(append([]byte{}, first...), second...)
	require.Equal(t, want, assembled.APDU)

	_, err = re.TakeFull(5, 42)
	require.ErrorIs(t, err, wpcerr.ErrNotFull, "record must be destroyed after delivery")
}

func TestAddFragment_S3_DuplicateRejectedAfterCompletion(t *testing.T) {
	re := New(0)
	first := make([]byte, 100)
	second := make([]byte, 50)

	_, err := re.AddFragment(FragmentInput{SrcAddr: 5, PacketID: 42, Offset: 0, Size: 100, Bytes: first})
	require.NoError(t, err)
	full, err := re.AddFragment(FragmentInput{SrcAddr: 5, PacketID: 42, Offset: 100, Size: 50, LastFragment: true, Bytes: second})
	require.NoError(t, err)
	require.True(t, full)

	// Re-submit the first fragment before take_full: rejected, is_full
	// remains true, take_full still returns all 150 bytes.
	_, err = re.AddFragment(FragmentInput{SrcAddr: 5, PacketID: 42, Offset: 0, Size: 100, Bytes: first})
	require.ErrorIs(t, err, wpcerr.ErrDuplicateFragment)

	assembled, err := re.TakeFull(5, 42)
	require.NoError(t, err)
	require.Len(t, assembled.APDU, 150)
}

func TestGC_S7_RetainsUnder10sEvictsOver10s(t *testing.T) {
	re := New(10 * time.Second)
	now := time.Now()
	re.now = func() time.Time { return now }

	_, err := re.AddFragment(FragmentInput{SrcAddr: 1, PacketID: 1, Offset: 0, Size: 10, Bytes: make([]byte, 10)})
	require.NoError(t, err)

	// First GC call establishes lastGC; record is 0s old, retained.
	re.GC()
	require.Equal(t, 1, re.Pending())

	// 9s later (already past MinGCPeriod, so this sweep runs): still retained.
	now = now.Add(9 * time.Second)
	re.GC()
	require.Equal(t, 1, re.Pending())

	// Push total age past 10s and sweep again.
	now = now.Add(2 * time.Second)
	now = now.Add(MinGCPeriod)
	re.GC()
	require.Equal(t, 0, re.Pending())
}

func TestAddFragmentThenTakeFull_Property(t *testing.T) {
	// Invariant 5: any fragment set covering [0, L) exactly once, with the
	// last-fragment marker on the greatest offset, reassembles to the
	// original bytes in order regardless of submission order.
	rapid.Check(t, func(t *rapid.T) {
		count := rapid.IntRange(1, 6).Draw(t, "count")
		sizes := make([]int, count)
		for i := range sizes {
			sizes[i] = rapid.IntRange(1, 20).Draw(t, "size")
		}
		offsets := make([]int, count)
		total := 0
		for i, s := range sizes {
			offsets[i] = total
			total += s
		}
		parts := make([][]byte, count)
		for i, s := range sizes {
			parts[i] = rapid.SliceOfN(rapid.Uint8Range(0, 255), s, s).Draw(t, "part")
		}

		order := rapid.Permutation(indices(count)).Draw(t, "order")

		re := New(0)
		for _, idx := range order {
			_, err := re.AddFragment(FragmentInput{
				SrcAddr: 7, PacketID: 1,
				Offset:       offsets[idx],
				Size:         sizes[idx],
				LastFragment: idx == count-1,
				Bytes:        parts[idx],
			})
			require.NoError(t, err)
		}

		full, err := re.TakeFull(7, 1)
		require.NoError(t, err)

		want := make([]byte, 0, total)
		for _, p := range parts {
			want = append(want, p...)
		}
		require.Equal(t, want, full.APDU)
	})
}

func indices(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
