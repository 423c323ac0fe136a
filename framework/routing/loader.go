package routing

import (
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// File is the YAML route table:
//
//	prefix: /api
//	routes:
//	  - name: posts.show
//	    method: GET
//	    path: /posts/{id:i}
//	    handler: PostController@Show
//	  - path: /health
//	    methods: [GET, HEAD]
//	    handler: HealthController
//	  - resource: /photos
//	    controller: PhotoController
type File struct {
	Prefix string      `yaml:"prefix"`
	Routes []FileRoute `yaml:"routes"`
}

// FileRoute is one entry of a route file. A method of "" or "ANY" matches
// every method.
type FileRoute struct {
	Name       string   `yaml:"name"`
	Method     string   `yaml:"method"`
	Methods    []string `yaml:"methods"`
	Path       string   `yaml:"path"`
	Handler    string   `yaml:"handler"`
	Resource   string   `yaml:"resource"`
	Controller string   `yaml:"controller"`
}

// LoadFile reads a YAML route table into r.
func LoadFile(path string, r *Router) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("routing: open %s: %w", path, err)
	}
	defer f.Close()
	if err := Load(f, r); err != nil {
		return fmt.Errorf("routing: %s: %w", path, err)
	}
	return nil
}

// Load decodes a YAML route table from src into r.
func Load(src io.Reader, r *Router) error {
	var file File
	dec := yaml.NewDecoder(src)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && err != io.EOF {
		return fmt.Errorf("decode routes: %w", err)
	}

	target := r
	if file.Prefix != "" {
		target = r.sub(r.join(file.Prefix), r.namePrefix)
	}
	for i, fr := range file.Routes {
		if err := fr.apply(target); err != nil {
			return fmt.Errorf("route %d: %w", i, err)
		}
	}
	return nil
}

func (fr FileRoute) apply(r *Router) error {
	if fr.Resource != "" {
		if fr.Controller == "" {
			return fmt.Errorf("resource %s has no controller", fr.Resource)
		}
		r.Resource(fr.Resource, fr.Controller)
		return nil
	}
	if fr.Path == "" {
		return fmt.Errorf("missing path")
	}
	if fr.Handler == "" {
		return fmt.Errorf("%s: %w: missing handler", fr.Path, ErrInvalidHandler)
	}

	methods := fr.Methods
	if fr.Method != "" {
		methods = append([]string{fr.Method}, methods...)
	}
	if len(methods) == 0 {
		methods = []string{""}
	}
	for _, m := range methods {
		if strings.EqualFold(m, "ANY") {
			m = ""
		}
		e := r.add(m, fr.Path, fr.Handler)
		if fr.Name != "" {
			e.Name(fr.Name)
		}
	}
	return nil
}
