// Package testutil holds helpers shared by package tests: audio fixtures,
// component lifecycle setup with automatic cleanup, and polling for
// asynchronous state.
//
//	func TestPipeline(t *testing.T) {
//	    path := testutil.WriteWAV(t, filepath.Join(t.TempDir(), "in.wav"), testutil.Tone(16000, 0.5), 16000)
//	    testutil.T(t).Setup(hub)
//	    testutil.Eventually(t, time.Second, func() bool { return done(path) })
//	}
package testutil
