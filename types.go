package mlsclient

import (
	"encoding/xml"
	"fmt"
)

const (
	soapEnvNS  = "http://schemas.xmlsoap.org/soap/envelope/"
	wsseNS     = "http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-wssecurity-secext-1.0.xsd"
	wsuNS      = "http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-wssecurity-utility-1.0.xsd"
	dsigNS     = "http://www.w3.org/2000/09/xmldsig#"
	excC14N    = "http://www.w3.org/2001/10/xml-exc-c14n#"
	rsaSHA1    = "http://www.w3.org/2000/09/xmldsig#rsa-sha1"
	sha1Digest = "http://www.w3.org/2000/09/xmldsig#sha1"
	pwdText    = "http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-username-token-profile-1.0#PasswordText"

	bodyIDAttribute = "Id"
)

type envelope struct {
	XMLName xml.Name `xml:"soap:Envelope"`
	Soap    string   `xml:"xmlns:soap,attr"`
	Header  *header  `xml:"soap:Header,omitempty"`
	Body    *body    `xml:"soap:Body"`
}

type body struct {
	ID        string `xml:"wsu:Id,attr,omitempty"`
	Wsu       string `xml:"xmlns:wsu,attr,omitempty"`
	Operation operationElement
}

type header struct {
	Security *security `xml:"wsse:Security"`
}

type security struct {
	Wsse          string         `xml:"xmlns:wsse,attr"`
	UsernameToken *usernameToken `xml:"wsse:UsernameToken,omitempty"`
	Signature     *signature     `xml:"Signature,omitempty"`
}

type usernameToken struct {
	Username string    `xml:"wsse:Username"`
	Password *password `xml:"wsse:Password"`
}

type password struct {
	Type string `xml:"Type,attr"`
	Text string `xml:",chardata"`
}

type signature struct {
	ID             string      `xml:"Id,attr"`
	Xmlns          string      `xml:"xmlns,attr"`
	SignedInfo     *signedInfo `xml:"SignedInfo"`
	SignatureValue string      `xml:"SignatureValue"`
	KeyInfo        *keyInfo    `xml:"KeyInfo"`
}

type signedInfo struct {
	CanonicalizationMethod algorithm `xml:"CanonicalizationMethod"`
	SignatureMethod        algorithm `xml:"SignatureMethod"`
	Reference              reference `xml:"Reference"`
}

type algorithm struct {
	Algorithm string `xml:"Algorithm,attr"`
}

type reference struct {
	URI          string      `xml:"URI,attr"`
	Transforms   []algorithm `xml:"Transforms>Transform"`
	DigestMethod algorithm   `xml:"DigestMethod"`
	DigestValue  string      `xml:"DigestValue"`
}

type keyInfo struct {
	ID       string   `xml:"Id,attr"`
	X509Data x509Data `xml:"wsse:SecurityTokenReference>X509Data"`
}

type x509Data struct {
	IssuerName      string `xml:"X509IssuerSerial>X509IssuerName"`
	SerialNumber    string `xml:"X509IssuerSerial>X509SerialNumber"`
	X509Certificate string `xml:"X509Certificate"`
}

// Param is a named argument of an Operation.
type Param struct {
	Name  string
	Value interface{}
}

// Payload is free-form structured data sent as nested elements. Keys are written
// in alphabetical order; values may be strings, numbers, bools or nested Payloads.
type Payload map[string]interface{}

// Operation defines a call to the SOAP service
type Operation struct {
	// Name is the name of the operation, e.g. GetProperties. It is mandatory.
	Name string
	// Params are the operation arguments, written in order.
	Params []Param
}

// Param returns the value of the named parameter, or nil.
func (op Operation) Param(name string) interface{} {
	for _, p := range op.Params {
		if p.Name == name {
			return p.Value
		}
	}

	return nil
}

// operationElement is the body child of the request, qualified with the
// service target namespace.
type operationElement struct {
	Namespace string
	Operation Operation
}

// MarshalXML marshals the operation into its request element. Map keys are always sorted alphabetically.
func (o operationElement) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start = xml.StartElement{
		Name: xml.Name{Local: o.Operation.Name},
		Attr: []xml.Attr{{Name: xml.Name{Local: "xmlns"}, Value: o.Namespace}},
	}

	if err := e.EncodeToken(start); err != nil {
		return err
	}

	if err := encodeParams(e, o.Operation.Params); err != nil {
		return err
	}

	if err := e.EncodeToken(start.End()); err != nil {
		return err
	}

	return e.Flush()
}

func encodeParams(e *xml.Encoder, params []Param) error {
	for _, p := range params {
		if err := encodeValue(e, p.Name, p.Value); err != nil {
			return err
		}
	}

	return nil
}

func encodeValue(e *xml.Encoder, name string, value interface{}) error {
	start := xml.StartElement{Name: xml.Name{Local: name}}

	switch v := value.(type) {
	case nil:
		return e.EncodeElement("", start)
	case string, bool, int, int32, int64, uint, uint32, uint64, float32, float64:
		return e.EncodeElement(v, start)
	case xml.Marshaler:
		return e.EncodeElement(v, start)
	case []Param:
		return encodeNested(e, start, func() error { return encodeParams(e, v) })
	case Payload:
		return encodeMap(e, start, v)
	case map[string]interface{}:
		return encodeMap(e, start, v)
	case map[string]string:
		return encodeNested(e, start, func() error {
			var err error
			eachSortedKeyValue(v, func(key string, value string) {
				if err == nil {
					err = e.EncodeElement(value, xml.StartElement{Name: xml.Name{Local: key}})
				}
			})
			return err
		})
	default:
		return fmt.Errorf("mlsclient: parameter %s: type %T not supported", name, value)
	}
}

func encodeMap(e *xml.Encoder, start xml.StartElement, m map[string]interface{}) error {
	return encodeNested(e, start, func() error {
		var err error
		eachSortedKeyValue(m, func(key string, value interface{}) {
			if err == nil {
				err = encodeValue(e, key, value)
			}
		})
		return err
	})
}

func encodeNested(e *xml.Encoder, start xml.StartElement, children func() error) error {
	if err := e.EncodeToken(start); err != nil {
		return err
	}

	if err := children(); err != nil {
		return err
	}

	return e.EncodeToken(start.End())
}
