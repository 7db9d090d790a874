package ledger

import (
	"bytes"
	"fmt"

	"github.com/cubist-collective/cubist-games-go/pda"
)

// Signer produces the signature for a compiled transaction message. Key
// custody lives outside this module; a wallet adapter or a local keypair
// both satisfy this interface.
type Signer interface {
	PublicKey() pda.PublicKey
	Sign(message []byte) ([]byte, error)
}

// AccountMeta declares how an instruction touches one account.
type AccountMeta struct {
	PubKey     pda.PublicKey
	IsSigner   bool
	IsWritable bool
}

// Instruction is one program invocation inside a transaction.
type Instruction struct {
	ProgramID pda.PublicKey
	Accounts  []AccountMeta
	Data      []byte
}

// signatureSize is the length of an ed25519 signature.
const signatureSize = 64

// CompileMessage builds the legacy wire message for the given instructions:
// a three-byte header, the deduplicated account table ordered
// writable-signers, readonly-signers, writable, readonly, the recent
// blockhash, and the compact instruction list. payer is placed first and
// always signs.
func CompileMessage(payer pda.PublicKey, recentBlockhash [32]byte, instrs []Instruction) ([]byte, error) {
	type slot struct {
		signer   bool
		writable bool
	}
	slots := map[pda.PublicKey]*slot{
		payer: {signer: true, writable: true},
	}
	merge := func(key pda.PublicKey, signer, writable bool) {
		s, ok := slots[key]
		if !ok {
			s = &slot{}
			slots[key] = s
		}
		s.signer = s.signer || signer
		s.writable = s.writable || writable
	}
	for _, in := range instrs {
		for _, m := range in.Accounts {
			merge(m.PubKey, m.IsSigner, m.IsWritable)
		}
		merge(in.ProgramID, false, false)
	}

	// Deterministic ordering within each class keeps the message stable
	// for identical inputs.
	classes := [4][]pda.PublicKey{} // writable-signer, ro-signer, writable, ro
	appendSorted := func(class int, key pda.PublicKey) {
		list := classes[class]
		i := 0
		for i < len(list) && bytes.Compare(list[i][:], key[:]) < 0 {
			i++
		}
		list = append(list, pda.PublicKey{})
		copy(list[i+1:], list[i:])
		list[i] = key
		classes[class] = list
	}
	for key, s := range slots {
		if key == payer {
			continue
		}
		switch {
		case s.signer && s.writable:
			appendSorted(0, key)
		case s.signer:
			appendSorted(1, key)
		case s.writable:
			appendSorted(2, key)
		default:
			appendSorted(3, key)
		}
	}

	keys := []pda.PublicKey{payer}
	keys = append(keys, classes[0]...)
	keys = append(keys, classes[1]...)
	keys = append(keys, classes[2]...)
	keys = append(keys, classes[3]...)

	index := make(map[pda.PublicKey]int, len(keys))
	for i, k := range keys {
		index[k] = i
	}

	numSigners := 1 + len(classes[0]) + len(classes[1])
	header := [3]byte{
		uint8(numSigners),
		uint8(len(classes[1])),
		uint8(len(classes[3])),
	}

	var msg bytes.Buffer
	msg.Write(header[:])
	writeCompactU16(&msg, len(keys))
	for _, k := range keys {
		msg.Write(k[:])
	}
	msg.Write(recentBlockhash[:])
	writeCompactU16(&msg, len(instrs))
	for _, in := range instrs {
		progIdx, ok := index[in.ProgramID]
		if !ok || progIdx > 255 {
			return nil, fmt.Errorf("%w: program index out of range", ErrInvalidResponse)
		}
		msg.WriteByte(uint8(progIdx))
		writeCompactU16(&msg, len(in.Accounts))
		for _, m := range in.Accounts {
			msg.WriteByte(uint8(index[m.PubKey]))
		}
		writeCompactU16(&msg, len(in.Data))
		msg.Write(in.Data)
	}
	return msg.Bytes(), nil
}

// SignTransaction wraps a compiled message with the payer's signature into
// the submittable transaction envelope.
func SignTransaction(message []byte, signer Signer) ([]byte, error) {
	sig, err := signer.Sign(message)
	if err != nil {
		return nil, fmt.Errorf("ledger: sign transaction: %w", err)
	}
	if len(sig) != signatureSize {
		return nil, fmt.Errorf("ledger: signature is %d bytes, expected %d", len(sig), signatureSize)
	}
	var tx bytes.Buffer
	writeCompactU16(&tx, 1)
	tx.Write(sig)
	tx.Write(message)
	return tx.Bytes(), nil
}

// writeCompactU16 encodes a length in the compact-u16 varint form used by
// the transaction wire format.
func writeCompactU16(buf *bytes.Buffer, v int) {
	for {
		if v < 0x80 {
			buf.WriteByte(uint8(v))
			return
		}
		buf.WriteByte(uint8(v&0x7f | 0x80))
		v >>= 7
	}
}
