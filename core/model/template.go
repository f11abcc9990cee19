package model

// Template describes the initial block structure and metadata of a new
// document.
type Template struct {
	Name        string
	Description string
	Structure   []BlockType
	Metadata    map[string]string
}

// AcademicEssayTemplate is the standard starting point: a single
// introduction block.
var AcademicEssayTemplate = Template{
	Name:        "Academic Essay",
	Description: "Standard academic essay structure",
	Structure:   []BlockType{Introduction},
}

// DefaultTemplates lists the built-in templates.
var DefaultTemplates = []Template{AcademicEssayTemplate}

// FindTemplate returns the built-in template with the given name.
func FindTemplate(name string) (Template, bool) {
	for _, t := range DefaultTemplates {
		if t.Name == name {
			return t, true
		}
	}
	return Template{}, false
}

// NewDocument creates a document seeded with the template's block
// structure.
func (t Template) NewDocument(name string) *Document {
	d := NewDocument(name)
	if t.Metadata != nil {
		if v, ok := t.Metadata["author"]; ok {
			d.Metadata.Author = v
		}
		if v, ok := t.Metadata["description"]; ok {
			d.Metadata.Description = v
		}
	}
	for _, bt := range t.Structure {
		d.AddBlock(bt, "")
	}
	return d
}
