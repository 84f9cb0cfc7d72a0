// Package nv21play plays local video files through a decode, NV21 repack
// and OpenGL ES render pipeline.
//
// A Player owns one playback session. The session worker reads compressed
// samples from a container (IVF, Y4M or MP4), decodes them with a
// registered codec backend, paces each picture against its presentation
// timestamp and repacks it into a contiguous NV21 frame. Every frame is
// then fanned out to an optional renderer, an optional face detection
// side channel and a user callback.
//
// # Getting Started
//
//	opts := nv21play.NewOptions()
//	opts.Renderer = render.New(glContext)
//	opts.RequestRender = window.Wake
//
//	player, err := nv21play.NewPlayer("clip.ivf", opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer player.Kill()
//
//	player.CallbackStopped(func() {
//	    fmt.Println("done")
//	})
//
//	if err := player.Play(); err != nil {
//	    log.Fatal(err)
//	}
//	<-player.Done()
//
// # Codecs
//
// VP8 and raw 4:2:0 video decode in pure Go. Building with the ffmpeg tag
// adds H.264, HEVC, VP9 and AV1 through libavcodec.
//
// # Threading
//
// Player callbacks run on the decode worker goroutine, except the faces
// callback, which runs on the detection goroutine. Renderer drawing must
// happen on the goroutine that owns the GL context; the player only
// requests redraws.
package nv21play
