package seed

// Entry is one bookmark in the seed YAML file.
//
// Example:
//
//	- url: https://golang.org/
//	  title: The Go Programming Language
//	  tags: [go, reference]
//	  private: false
type Entry struct {
	URL         string   `yaml:"url"`
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Tags        []string `yaml:"tags"`
	Private     bool     `yaml:"private"`
	Sticky      bool     `yaml:"sticky"`
}
