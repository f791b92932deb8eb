// Package modguard flags toxic user text with a pretrained multi-label
// classifier.
//
// Quick start:
//
//	m, err := modguard.New(modguard.WithModelDir("models/"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer m.Close()
//
//	labels, err := m.Classify(ctx, "I will kill you")
//	if errors.Is(err, modguard.ErrModerationUnavailable) {
//	    // treat the text as unmoderated
//	}
//	fmt.Println(labels) // [Toxic Threat]
//
// A Moderator is safe for concurrent use. Create once, reuse across
// requests.
package modguard
