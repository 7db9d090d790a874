package settings

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/cubist-collective/cubist-games-go/pda"
)

// The ledger program reads the settings record as a fixed little-endian
// schema. Every decimal stake/fee quantity is scaled to an integer by the
// uniform maxDecimals convention before transmission; the layout below must
// stay bit-exact with the program side.
//
//	https               u8
//	domain              u32 len + bytes
//	fee                 u64 (scaled)
//	showPot             u8
//	useCategories       u8
//	allowReferral       u8
//	customStakeButton   u8
//	fireThreshold       u32
//	minStake            u64 (scaled)
//	minStep             u64 (scaled)
//	stakeButtons        u32 count + count*u64 (scaled)
//	designTemplatesHash u8 tag + optional string
//	categoriesHash      u8 tag + optional string
//	profitSharing       u32 count + count*(pubkey[32] + u64 share scaled)
//	terms               u32 count + count*(u32 len + id bytes + u8 bump)

// ToUnits converts a decimal quantity to integer units under the scaling
// convention. Values are rounded to the nearest unit.
func ToUnits(v float64, decimals int) uint64 {
	if v <= 0 {
		return 0
	}
	return uint64(math.Round(v * math.Pow10(decimals)))
}

// FromUnits converts integer units back to a decimal quantity.
func FromUnits(u uint64, decimals int) float64 {
	return float64(u) / math.Pow10(decimals)
}

// Encode serializes the record under the fixed schema with the given
// decimal scaling.
func Encode(s *Settings, decimals int) []byte {
	var buf bytes.Buffer
	putBool(&buf, s.HTTPS)
	putString(&buf, s.Domain)
	putU64(&buf, ToUnits(s.Fee, decimals))
	putBool(&buf, s.ShowPot)
	putBool(&buf, s.UseCategories)
	putBool(&buf, s.AllowReferral)
	putBool(&buf, s.CustomStakeButton)
	putU32(&buf, s.FireThreshold)
	putU64(&buf, ToUnits(s.MinStake, decimals))
	putU64(&buf, ToUnits(s.MinStep, decimals))

	putU32(&buf, uint32(len(s.StakeButtons)))
	for _, v := range s.StakeButtons {
		putU64(&buf, ToUnits(v, decimals))
	}

	putOption(&buf, s.DesignTemplates)
	putOption(&buf, s.Categories)

	putU32(&buf, uint32(len(s.ProfitSharing)))
	for _, p := range s.ProfitSharing {
		buf.Write(p.Treasury[:])
		putU64(&buf, ToUnits(p.Share, decimals))
	}

	putU32(&buf, uint32(len(s.Terms)))
	for _, t := range s.Terms {
		putString(&buf, t.ID)
		buf.WriteByte(t.Bump)
	}
	return buf.Bytes()
}

// Decode deserializes ledger account data back into a settings record.
func Decode(data []byte, decimals int) (*Settings, error) {
	r := &reader{data: data}
	s := &Settings{}

	s.HTTPS = r.bool()
	s.Domain = r.string()
	s.Fee = FromUnits(r.u64(), decimals)
	s.ShowPot = r.bool()
	s.UseCategories = r.bool()
	s.AllowReferral = r.bool()
	s.CustomStakeButton = r.bool()
	s.FireThreshold = r.u32()
	s.MinStake = FromUnits(r.u64(), decimals)
	s.MinStep = FromUnits(r.u64(), decimals)

	n := r.count()
	for i := uint32(0); i < n && r.err == nil; i++ {
		s.StakeButtons = append(s.StakeButtons, FromUnits(r.u64(), decimals))
	}

	s.DesignTemplates = r.option()
	s.Categories = r.option()

	n = r.count()
	for i := uint32(0); i < n && r.err == nil; i++ {
		var p ProfitShare
		r.pubkey(&p.Treasury)
		p.Share = FromUnits(r.u64(), decimals)
		s.ProfitSharing = append(s.ProfitSharing, p)
	}

	n = r.count()
	for i := uint32(0); i < n && r.err == nil; i++ {
		var t TermsRef
		t.ID = r.string()
		t.Bump = r.byte()
		s.Terms = append(s.Terms, t)
	}

	if r.err != nil {
		return nil, r.err
	}
	if r.off != len(data) {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrInvalidEncoding, len(data)-r.off)
	}
	return s, nil
}

// DecodeSystemConfig deserializes the global system-config account.
func DecodeSystemConfig(data []byte, decimals int) (*SystemConfig, error) {
	r := &reader{data: data}
	sc := &SystemConfig{}
	sc.MaxFee = FromUnits(r.u64(), decimals)
	sc.MaxTerms = r.byte()
	sc.MaxStakeButtons = r.byte()
	if r.err != nil {
		return nil, r.err
	}
	return sc, nil
}

// EncodeSystemConfig is the inverse of DecodeSystemConfig.
func EncodeSystemConfig(sc *SystemConfig, decimals int) []byte {
	var buf bytes.Buffer
	putU64(&buf, ToUnits(sc.MaxFee, decimals))
	buf.WriteByte(sc.MaxTerms)
	buf.WriteByte(sc.MaxStakeButtons)
	return buf.Bytes()
}

// DecodeStats deserializes the per-authority counters account.
func DecodeStats(data []byte) (*Stats, error) {
	r := &reader{data: data}
	st := &Stats{}
	st.TotalGames = r.u64()
	st.SettledGames = r.u64()
	st.TotalVolume = r.u64()
	st.UniquePlayers = r.u64()
	if r.err != nil {
		return nil, r.err
	}
	return st, nil
}

// EncodeStats is the inverse of DecodeStats.
func EncodeStats(st *Stats) []byte {
	var buf bytes.Buffer
	putU64(&buf, st.TotalGames)
	putU64(&buf, st.SettledGames)
	putU64(&buf, st.TotalVolume)
	putU64(&buf, st.UniquePlayers)
	return buf.Bytes()
}

// TermsPointer is the on-ledger pointer account for one published document:
// the derived-address bump and the opaque content-store reference.
type TermsPointer struct {
	Bump       uint8
	ContentRef string
}

// DecodeTermsPointer deserializes a terms pointer account.
func DecodeTermsPointer(data []byte) (*TermsPointer, error) {
	r := &reader{data: data}
	tp := &TermsPointer{}
	tp.Bump = r.byte()
	tp.ContentRef = r.string()
	if r.err != nil {
		return nil, r.err
	}
	return tp, nil
}

// EncodeTermsPointer is the inverse of DecodeTermsPointer.
func EncodeTermsPointer(tp *TermsPointer) []byte {
	var buf bytes.Buffer
	buf.WriteByte(tp.Bump)
	putString(&buf, tp.ContentRef)
	return buf.Bytes()
}

// ---------------------------------------------------------------------------
// write helpers
// ---------------------------------------------------------------------------

func putBool(buf *bytes.Buffer, v bool) {
	if v {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
}

func putU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func putU64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}

func putString(buf *bytes.Buffer, s string) {
	putU32(buf, uint32(len(s)))
	buf.WriteString(s)
}

func putOption(buf *bytes.Buffer, s string) {
	if s == "" {
		buf.WriteByte(0)
		return
	}
	buf.WriteByte(1)
	putString(buf, s)
}

// ---------------------------------------------------------------------------
// bounds-checked reader
// ---------------------------------------------------------------------------

// maxCollectionLen rejects obviously corrupt length prefixes before any
// allocation happens.
const maxCollectionLen = 1 << 16

type reader struct {
	data []byte
	off  int
	err  error
}

func (r *reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if r.off+n > len(r.data) {
		r.err = fmt.Errorf("%w: truncated at offset %d", ErrInvalidEncoding, r.off)
		return nil
	}
	out := r.data[r.off : r.off+n]
	r.off += n
	return out
}

func (r *reader) byte() uint8 {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *reader) bool() bool { return r.byte() != 0 }

func (r *reader) u32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *reader) u64() uint64 {
	b := r.take(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

func (r *reader) count() uint32 {
	n := r.u32()
	if r.err == nil && n > maxCollectionLen {
		r.err = fmt.Errorf("%w: implausible collection length %d", ErrInvalidEncoding, n)
		return 0
	}
	return n
}

func (r *reader) string() string {
	n := r.count()
	b := r.take(int(n))
	if b == nil {
		return ""
	}
	return string(b)
}

func (r *reader) option() string {
	if r.byte() == 0 {
		return ""
	}
	return r.string()
}

func (r *reader) pubkey(pk *pda.PublicKey) {
	b := r.take(pda.PublicKeySize)
	if b != nil {
		copy(pk[:], b)
	}
}
