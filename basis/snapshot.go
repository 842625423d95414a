package basis

import (
	"fmt"
	"io"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/fumin/spinchain/state"
)

type sectorRecord struct {
	Kind  int      `msgpack:"kind"`
	M     int      `msgpack:"m"`
	K     int      `msgpack:"k"`
	Light bool     `msgpack:"light"`
	Reps  []uint64 `msgpack:"reps"`
}

type snapshot struct {
	Length  int            `msgpack:"length"`
	Sectors []sectorRecord `msgpack:"sectors"`
}

type envelope struct {
	Checksum uint64 `msgpack:"checksum"`
	Payload  []byte `msgpack:"payload"`
}

// WriteSnapshot writes the representatives of every sector of s to w.
// The reverse index is not stored, ReadSnapshot rebuilds it from the orbits.
func WriteSnapshot(w io.Writer, s *Sectors) error {
	snap := snapshot{Length: s.Length}
	for _, q := range s.Keys() {
		b := s.Bases[q]
		rec := sectorRecord{Kind: int(q.Kind), M: q.M, K: q.K, Light: b.Light(), Reps: b.Reps}
		snap.Sectors = append(snap.Sectors, rec)
	}
	payload, err := msgpack.Marshal(snap)
	if err != nil {
		return errors.Wrap(err, "")
	}
	b, err := msgpack.Marshal(envelope{Checksum: xxhash.Sum64(payload), Payload: payload})
	if err != nil {
		return errors.Wrap(err, "")
	}

	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return errors.Wrap(err, "")
	}
	if _, err := enc.Write(b); err != nil {
		enc.Close()
		return errors.Wrap(err, "")
	}
	if err := enc.Close(); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}

// ReadSnapshot reads sectors written by WriteSnapshot.
func ReadSnapshot(r io.Reader) (*Sectors, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	defer dec.Close()
	b, err := io.ReadAll(dec)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}

	var env envelope
	if err := msgpack.Unmarshal(b, &env); err != nil {
		return nil, errors.Wrap(err, "")
	}
	if sum := xxhash.Sum64(env.Payload); sum != env.Checksum {
		return nil, errors.Errorf("checksum %x, expected %x", sum, env.Checksum)
	}
	var snap snapshot
	if err := msgpack.Unmarshal(env.Payload, &snap); err != nil {
		return nil, errors.Wrap(err, "")
	}
	if snap.Length < 1 || snap.Length > state.MaxLength {
		return nil, errors.Wrap(state.ErrOverFlow, fmt.Sprintf("length %d", snap.Length))
	}

	s := newSectors(snap.Length)
	for _, rec := range snap.Sectors {
		q := state.QuantumNumber{Kind: state.Kind(rec.Kind), M: rec.M, K: rec.K}
		if err := checkRecord(q, rec, snap.Length); err != nil {
			return nil, errors.Wrap(err, "")
		}
		if _, ok := s.Bases[q]; ok {
			return nil, errors.Wrap(state.ErrInvalidConfiguration, fmt.Sprintf("duplicate sector %v", q))
		}
		b := newBasis(q, snap.Length)
		for _, n := range rec.Reps {
			if err := checkRep(q, n, snap.Length); err != nil {
				return nil, errors.Wrap(err, "")
			}
			// Orbits of distinct representatives are disjoint.
			if b.Contains(n) {
				return nil, errors.Wrap(state.ErrInvalidConfiguration, fmt.Sprintf("%v %d repeated", q, n))
			}
			switch q.Kind {
			case state.KindMomentum:
				b.addOrbit(n, state.PeriodUnsafe(n, snap.Length), rec.Light)
			default:
				b.addState(n)
			}
		}
		s.Bases[q] = b
	}
	return s, nil
}

func checkRecord(q state.QuantumNumber, rec sectorRecord, length int) error {
	switch q.Kind {
	case state.KindEmpty, state.KindNumber, state.KindMomentum:
	default:
		return errors.Errorf("unknown kind %d", rec.Kind)
	}
	if len(rec.Reps) == 0 {
		return errors.Wrap(state.ErrInvalidConfiguration, fmt.Sprintf("empty sector %v", q))
	}
	if q.M < 0 || q.M > length || q.K < 0 || (q.Kind == state.KindMomentum && q.K >= length) {
		return errors.Wrap(state.ErrOverFlow, fmt.Sprintf("%v length %d", q, length))
	}
	return nil
}

// checkRep checks that n belongs to the sector q.
func checkRep(q state.QuantumNumber, n uint64, length int) error {
	if n >= 1<<length {
		return errors.Wrap(state.ErrOverFlow, fmt.Sprintf("%v %d", q, n))
	}
	if q.Kind == state.KindEmpty {
		return nil
	}
	if state.SumBit(n) != q.M {
		return errors.Wrap(state.ErrInvalidConfiguration, fmt.Sprintf("%v %d", q, n))
	}
	if q.Kind == state.KindMomentum {
		if !state.IsRepUnsafe(n, length) || !q.CheckCommensurability(state.PeriodUnsafe(n, length), length) {
			return errors.Wrap(state.ErrInvalidConfiguration, fmt.Sprintf("%v %d", q, n))
		}
	}
	return nil
}
