// Package session drives playback of one container file.
//
// A Session owns a dedicated worker goroutine that opens the container,
// selects the first video track, configures a decoder with a repackable
// color format, and pumps samples through the decoder's buffer queue.
// Each decoded picture is paced against a presentation clock, repacked
// into a contiguous NV21 (or I420) frame and handed to the Listener.
//
// The state machine is
//
//	Idle --Play--> Playing --Pause--> Paused --ContinuePlay--> Playing
//	any --Stop/Destroy/EOS/error--> Stopped
//
// Stopped is terminal. OnStopped fires exactly once per session, after the
// decoder and the reader have been released.
//
// Basic usage:
//
//	s := session.New("clip.y4m", listener)
//	if err := s.Play(); err != nil {
//		log.Fatal(err)
//	}
//	<-s.Done()
package session
