// Package cli provides the interactive WeCare shell.
//
// It sits on top of app.App: symptom submissions with offline fallback, local
// history, manual sync, the reference directories and sign-in. The network
// monitor runs in the background and the prompt shows whether the device is
// currently online.
//
// The shell is started via Shell.Run(ctx), which blocks until the user exits.
// See runREPL for the command loop.
package cli
