package domain

// ShamirShare is one point on the sharing polynomial. Index is the x
// coordinate in [1,255]; Value is the field element at that point, hex
// encoded and zero-padded to 64 characters. SecretLen records the byte
// length of the shared secret so reconstruction can restore leading
// zero bytes the field arithmetic would otherwise drop.
type ShamirShare struct {
	Index     uint8  `json:"index"`
	Value     string `json:"value"`
	SecretLen uint8  `json:"secretLen"`
}
