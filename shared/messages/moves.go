package messages

// ServerMovePacked carries a bit-packed batch of saved moves from the client.
// NumBits is the number of meaningful bits in Bits.
type ServerMovePacked struct {
	Bits    []byte
	NumBits uint32
}
