// Package comicsource opens compressed image containers (ZIP, RAR, and 7z
// families) and local directories and exposes their contents as a single
// ordered, randomly-addressable sequence of images.
//
// Containers are selected by extension and opened through [Open]. Entries
// are classified against a fixed image allow-list, platform metadata is
// dropped, and the surviving entries are sorted in natural order (so
// "page2" precedes "page10"). A container that nests further archives, or
// that spreads its images over multiple directories, is flattened into a
// [CompositeImageSource] made of ordered segments; a flat container is
// returned as-is.
//
// # Quick start
//
// Open a comic archive and read its first page:
//
//	src, err := comicsource.Open(ctx, "book.cbz")
//	if err != nil {
//	    return err
//	}
//	defer src.Close()
//	img, err := src.LoadImage(0)
//
// # Passwords
//
// Opening an encrypted container without a password returns the source
// together with [ErrPasswordRequired]; re-invoke with [WithPassword].
// A wrong password yields [ErrWrongPassword] instead, so callers can
// distinguish "locked" from "incorrect". A [credential.Store] supplied
// via [WithCredentials] is consulted automatically and updated after a
// successful password open.
//
// # Resource ownership
//
// Sources returned by Open own every resource they create, including
// temporary files holding extracted nested archives. Closing the source
// releases all of them. A single source is not safe for concurrent use;
// callers must serialize access.
package comicsource
