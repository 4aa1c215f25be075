// Package bloom is a Go client for the Pollinations generation services:
// image rendering, text completion and chat, and speech synthesis.
//
// # Quick start
//
//	client, err := bloom.New(bloom.WithToken("your-token"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	img, err := client.GenerateImage(ctx, &image.Request{Prompt: "a field of tulips"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := img.Save("tulips.png"); err != nil {
//	    log.Fatal(err)
//	}
//
// Anonymous access works too: bloom.New() with no token issues unsigned
// requests against the public endpoints.
//
// # Execution contexts
//
// Every operation exists in two forms. The blocking form (GenerateImage,
// GenerateText, Chat, ...) runs the request on the client's shared session
// pool and returns the result. The Async form (GenerateImageAsync, ...)
// requires a [sched.Scope] on the context and returns a [sched.Task]
// immediately:
//
//	scope := sched.NewScope(ctx)
//	defer scope.Close()
//
//	t1, _ := client.GenerateTextAsync(scope.Context(), &text.Request{Prompt: "a haiku"})
//	t2, _ := client.GenerateTextAsync(scope.Context(), &text.Request{Prompt: "a limerick"})
//
//	haiku, err := t1.Await(ctx)
//	limerick, err := t2.Await(ctx)
//
// Blocking methods refuse to run inside a scope and return
// [core.ErrInvalidInvocationContext]; the error's suggestion names the
// Async variant to use instead. [Dispatch] bridges the two worlds for code
// that does not know which context it runs in.
//
// # Services
//
// The typed request and response shapes live in the service packages:
// [github.com/petal-labs/bloom/services/image],
// [github.com/petal-labs/bloom/services/text], and
// [github.com/petal-labs/bloom/services/audio]. The Image, Text, and Audio
// accessors expose the underlying clients for callers that want them
// directly.
//
// # Model inventories
//
// Models and Voices return the live inventories, cached for
// [DefaultCacheTTL] and falling back to compiled defaults when the service
// cannot be reached.
package bloom
