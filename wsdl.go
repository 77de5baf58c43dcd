package mlsclient

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

const defaultNamespace = "http://tempuri.org/"

// serviceDescription is what the client needs from the WSDL
type serviceDescription struct {
	namespace  string
	operations []string
	actions    map[string]string
}

func parseWSDL(data []byte) (*serviceDescription, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("parsing wsdl: %w", err)
	}

	root := doc.Root()
	if root == nil || root.Tag != "definitions" {
		return nil, fmt.Errorf("parsing wsdl: missing definitions element")
	}

	desc := &serviceDescription{
		namespace: root.SelectAttrValue("targetNamespace", defaultNamespace),
		actions:   make(map[string]string),
	}

	// A service usually has a SOAP 1.1 and a SOAP 1.2 binding; the first one
	// describing an operation wins.
	for _, op := range doc.FindElements("//binding/operation") {
		name := op.SelectAttrValue("name", "")
		if name == "" {
			continue
		}

		if _, seen := desc.actions[name]; seen {
			continue
		}

		action := ""
		if soapOp := op.SelectElement("operation"); soapOp != nil {
			action = soapOp.SelectAttrValue("soapAction", "")
		}

		desc.actions[name] = action
		desc.operations = append(desc.operations, name)
	}

	if len(desc.operations) == 0 {
		return nil, fmt.Errorf("parsing wsdl: no operations described")
	}

	return desc, nil
}

func (d *serviceDescription) describes(op string) bool {
	_, ok := d.actions[op]
	return ok
}

// soapAction returns the SOAPAction header value for op
func (d *serviceDescription) soapAction(op string) string {
	if action := d.actions[op]; action != "" {
		return action
	}

	if strings.HasSuffix(d.namespace, "/") {
		return d.namespace + op
	}

	return d.namespace + "/" + op
}
