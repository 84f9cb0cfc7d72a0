// Package container demultiplexes local video files into compressed samples.
//
// A Reader exposes the tracks found in a file and iterates the compressed
// samples of one selected track in decode order:
//
//	r, err := container.Open("clip.ivf")
//	if err != nil {
//	    return err // *container.Error, errors.Is(err, container.ErrContainer)
//	}
//	defer r.Close()
//
//	idx := container.FindTrack(r.Tracks(), "video/")
//	if err := r.SelectTrack(idx); err != nil {
//	    return err
//	}
//	for {
//	    s, err := r.ReadSample()
//	    if err != nil || s.EndOfStream {
//	        break
//	    }
//	    // hand s.Data to a decoder, then
//	    r.Advance()
//	}
//
// # Formats
//
// Three container formats are recognised by their leading bytes:
//
//   - IVF (VP8, VP9 and AV1 elementary streams), read with pion's ivfreader
//   - YUV4MPEG2 (uncompressed 4:2:0 frames), read natively
//   - ISO BMFF / MP4 (AVC video, AAC audio), probed with abema/go-mp4
//
// Exhausting a track is not an error: ReadSample returns a Sample whose
// EndOfStream flag is set.
package container
