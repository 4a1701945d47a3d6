package ports

// Target is anything settings are applied to through named property writes,
// for example a style declaration block. Writes are last-writer-wins.
type Target interface {
	SetProperty(name, value string)
}

// ResourceLoader is an optional Target capability for loading external
// resources such as font stylesheets. Implementations should ignore repeated
// loads of the same URL.
type ResourceLoader interface {
	LoadStylesheet(url string)
}
