package codec

// sendDraining implements the send side of a send/receive decoder. When
// send reports the decoder is full, pending output is drained and the same
// packet is sent again, until it is accepted.
func sendDraining(send func() error, full func(error) bool, drain func() (int, error)) error {
	for {
		err := send()
		if err == nil || !full(err) {
			return err
		}
		n, err := drain()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrDecoderStalled
		}
	}
}
