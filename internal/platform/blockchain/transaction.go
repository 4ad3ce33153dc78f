package blockchain

import (
	"crypto/ed25519"
	"encoding/binary"
	"fmt"
)

const (
	signatureSize = ed25519.SignatureSize
	hashSize      = 32

	// systemTransferInstruction is the System Program instruction index for Transfer.
	systemTransferInstruction uint32 = 2
)

// systemProgramID is 11111111111111111111111111111111 in base58.
var systemProgramID = make([]byte, 32)

// buildTransfer serializes a signed legacy transaction with a single System Program
// transfer of lamports from the wallet to recipient.
func buildTransfer(wallet *Wallet, recipient []byte, lamports uint64, blockhash []byte) ([]byte, error) {
	if len(recipient) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("recipient must be %d bytes, got %d", ed25519.PublicKeySize, len(recipient))
	}
	if len(blockhash) != hashSize {
		return nil, fmt.Errorf("blockhash must be %d bytes, got %d", hashSize, len(blockhash))
	}

	message := compileTransferMessage(wallet.publicKeyBytes(), recipient, lamports, blockhash)
	signature := wallet.sign(message)

	tx := make([]byte, 0, 1+signatureSize+len(message))
	tx = appendCompactU16(tx, 1)
	tx = append(tx, signature...)
	tx = append(tx, message...)
	return tx, nil
}

// compileTransferMessage lays out the message as
// header | account keys | recent blockhash | instructions.
// Keys are ordered payer (signer, writable), recipient (writable), system program
// (readonly), which the header [1, 0, 1] describes.
func compileTransferMessage(payer, recipient []byte, lamports uint64, blockhash []byte) []byte {
	data := make([]byte, 12)
	binary.LittleEndian.PutUint32(data[0:4], systemTransferInstruction)
	binary.LittleEndian.PutUint64(data[4:12], lamports)

	msg := make([]byte, 0, 3+1+3*32+hashSize+16+len(data))
	msg = append(msg, 1, 0, 1)

	msg = appendCompactU16(msg, 3)
	msg = append(msg, payer...)
	msg = append(msg, recipient...)
	msg = append(msg, systemProgramID...)

	msg = append(msg, blockhash...)

	msg = appendCompactU16(msg, 1)
	msg = append(msg, 2) // program id index
	msg = appendCompactU16(msg, 2)
	msg = append(msg, 0, 1)
	msg = appendCompactU16(msg, len(data))
	msg = append(msg, data...)

	return msg
}

// appendCompactU16 writes n in Solana's shortvec encoding.
func appendCompactU16(dst []byte, n int) []byte {
	v := uint16(n)
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v == 0 {
			return append(dst, b)
		}
		dst = append(dst, b|0x80)
	}
}
