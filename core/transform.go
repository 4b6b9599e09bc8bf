package core

// Transformer mutates a ChatLog in place before rendering.
type Transformer interface {
	Transform(log *ChatLog) error
}

// Chain applies transformers in order, stopping at the first error.
func Chain(log *ChatLog, transformers ...Transformer) error {
	for _, tr := range transformers {
		if err := tr.Transform(log); err != nil {
			return err
		}
	}
	return nil
}
