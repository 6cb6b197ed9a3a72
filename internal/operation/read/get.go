package read

import (
	"fmt"
	"strings"

	"github.com/ankidote/ankidote/internal/ankerr"
	"github.com/ankidote/ankidote/internal/collection"
	"github.com/ankidote/ankidote/internal/operation"
	"github.com/ankidote/ankidote/internal/printer"
)

// GetOperation retrieves a specific Anki object or property, grounded on
// original_source/anki_terminal/ops/read/get_operation.py.
type GetOperation struct {
	pathBase
}

// NewGetOperation constructs a get operation.
func NewGetOperation(p printer.OperationPrinter, kwargs map[string]any) (operation.Operation, error) {
	pb, err := newPathBase("get", "Get specific Anki objects or their properties", nil, p, kwargs)
	if err != nil {
		return nil, err
	}
	return &GetOperation{pathBase: pb}, nil
}

func (o *GetOperation) Validate(coll *collection.Collection) error {
	if err := o.validatePath(coll); err != nil {
		return err
	}
	switch o.Path.ObjectType {
	case "model", "fields", "templates", "css", "example":
	default:
		if !o.Path.IsItem() {
			return errPathNotItem
		}
	}
	return nil
}

func (o *GetOperation) Execute() (operation.Result, error) {
	var (
		res operation.Result
		err error
	)
	switch {
	case o.Path.ObjectType == "model":
		res, err = o.getModelInfo()
	case o.Path.ObjectType == "fields" && o.Path.ItemName != "":
		res, err = o.getFieldInfo()
	case o.Path.ObjectType == "templates" && o.Path.ItemName != "":
		res, err = o.getTemplateInfo()
	case o.Path.ObjectType == "css":
		res, err = o.getCSS()
	case o.Path.ObjectType == "example":
		res, err = o.getNoteExample()
	default:
		err = fmt.Errorf("cannot get information for path: %s", o.Path)
	}
	if err != nil {
		o.Printer.PrintError(err.Error())
		return operation.Result{Success: false, Message: err.Error()}, nil
	}
	return res, nil
}

func (o *GetOperation) getModelInfo() (operation.Result, error) {
	model, err := o.GetModel(o.Path.ModelName)
	if err != nil {
		return operation.Result{}, err
	}
	typ := "Standard"
	if model.Type != 0 {
		typ = "Cloze"
	}
	info := map[string]any{
		"name": model.Name, "id": int64(model.ID), "type": typ,
		"field_count": len(model.Fields), "template_count": len(model.Templates),
	}
	data := map[string]any{"model": info}
	o.Printer.PrintResult(data)
	return operation.Result{Success: true, Message: fmt.Sprintf("Retrieved information for model '%s'", model.Name), Data: data}, nil
}

func (o *GetOperation) getFieldInfo() (operation.Result, error) {
	model, err := o.GetModel(o.Path.ModelName)
	if err != nil {
		return operation.Result{}, err
	}
	field := model.FieldByName(o.Path.ItemName)
	if field == nil {
		return operation.Result{}, fmt.Errorf("field not found: %s in model %s: %w", o.Path.ItemName, model.Name, ankerr.ErrNotFound)
	}
	info := map[string]any{"name": field.Name, "type": "text", "ordinal": field.Ordinal}
	data := map[string]any{"field": info}
	o.Printer.PrintResult(data)
	return operation.Result{Success: true, Message: fmt.Sprintf("Retrieved information for field '%s' in model '%s'", field.Name, model.Name), Data: data}, nil
}

func (o *GetOperation) getTemplateInfo() (operation.Result, error) {
	model, err := o.GetModel(o.Path.ModelName)
	if err != nil {
		return operation.Result{}, err
	}
	template := model.TemplateByName(o.Path.ItemName)
	if template == nil {
		return operation.Result{}, fmt.Errorf("template not found: %s in model %s: %w", o.Path.ItemName, model.Name, ankerr.ErrNotFound)
	}
	info := map[string]any{
		"name": template.Name, "ordinal": template.Ordinal,
		"question_format": template.QuestionFormat, "answer_format": template.AnswerFormat,
	}
	data := map[string]any{"template": info}
	o.Printer.PrintResult(data)
	return operation.Result{Success: true, Message: fmt.Sprintf("Retrieved information for template '%s' in model '%s'", template.Name, model.Name), Data: data}, nil
}

func (o *GetOperation) getCSS() (operation.Result, error) {
	model, err := o.GetModel(o.Path.ModelName)
	if err != nil {
		return operation.Result{}, err
	}
	data := map[string]any{"css": model.CSS}
	o.Printer.PrintResult(data)
	return operation.Result{Success: true, Message: fmt.Sprintf("Retrieved CSS for model '%s'", model.Name), Data: data}, nil
}

func (o *GetOperation) getNoteExample() (operation.Result, error) {
	model, err := o.GetModel(o.Path.ModelName)
	if err != nil {
		return operation.Result{}, err
	}

	var example *collection.Note
	for _, id := range noteIDs(o.Collection) {
		n := o.Collection.Notes[id]
		if n.ModelID == model.ID {
			example = n
			break
		}
	}

	exampleFields := make(map[string]string, len(model.Fields))
	var message string
	if example == nil {
		for _, f := range model.Fields {
			exampleFields[f.Name] = ""
		}
		message = fmt.Sprintf("No notes found for model '%s', returning empty fields", model.Name)
	} else {
		for _, f := range model.Fields {
			content := example.Fields[f.Name]
			content = truncate(content)
			content = strings.ReplaceAll(content, collection.FieldSeparator, " | ")
			exampleFields[f.Name] = content
		}
		message = fmt.Sprintf("Retrieved example note for model '%s'", model.Name)
	}

	data := map[string]any{"example": exampleFields}
	o.Printer.PrintResult(data)
	return operation.Result{Success: true, Message: message, Data: data}, nil
}
