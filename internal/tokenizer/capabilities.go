package tokenizer

// Capabilities holds the "extensions enabled" flag consulted before every
// tokenizer invocation. EnableExtensions is only called on the retry path,
// after PHP reported that json_encode is unavailable.
type Capabilities interface {
	ExtensionsEnabled() bool
	EnableExtensions() error
}
