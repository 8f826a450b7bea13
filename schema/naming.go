package schema

import (
	"fmt"
	"strings"
	"sync"

	"github.com/jinzhu/inflection"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Namer namer interface
type Namer interface {
	ModelName(name string) string
	TableName(model string) string
	ForeignKey(model string) string
	SingularName(name string) string
	CountCacheName(association string) string
	PolymorphicNames(as string) (idField, modelField string)
}

// NamingStrategy tables, columns naming strategy
type NamingStrategy struct {
	TablePrefix   string
	SingularTable bool
}

var lower = cases.Lower(language.Und)

// ModelName canonical lower case model identifier, `BlogPost` becomes `blog_post`
func (ns NamingStrategy) ModelName(name string) string {
	return lower.String(toDBName(strings.TrimSpace(name)))
}

// TableName convert model name to table name
func (ns NamingStrategy) TableName(model string) string {
	if ns.SingularTable {
		return ns.TablePrefix + toDBName(model)
	}
	return ns.TablePrefix + inflection.Plural(toDBName(model))
}

// ForeignKey the column other tables use to reference model
func (ns NamingStrategy) ForeignKey(model string) string {
	return toDBName(model) + "_id"
}

// SingularName singular form of an association name, `pets` becomes `pet`
func (ns NamingStrategy) SingularName(name string) string {
	return inflection.Singular(name)
}

// CountCacheName default count cache column of an association
func (ns NamingStrategy) CountCacheName(association string) string {
	return toDBName(association) + "_count"
}

// PolymorphicNames the id and discriminator columns of a polymorphic association
func (ns NamingStrategy) PolymorphicNames(as string) (string, string) {
	return fmt.Sprintf("%s_id", as), fmt.Sprintf("%s_model", as)
}

var (
	smap sync.Map
	// https://github.com/golang/lint/blob/master/lint.go#L770
	commonInitialisms         = []string{"API", "ASCII", "CPU", "CSS", "DNS", "EOF", "GUID", "HTML", "HTTP", "HTTPS", "ID", "IP", "JSON", "LHS", "QPS", "RAM", "RHS", "RPC", "SLA", "SMTP", "SSH", "TLS", "TTL", "UID", "UI", "UUID", "URI", "URL", "UTF8", "VM", "XML", "XSRF", "XSS"}
	commonInitialismsReplacer *strings.Replacer
)

func init() {
	title := cases.Title(language.Und)
	commonInitialismsForReplacer := make([]string, 0, len(commonInitialisms))
	for _, initialism := range commonInitialisms {
		commonInitialismsForReplacer = append(commonInitialismsForReplacer, initialism, title.String(initialism))
	}
	commonInitialismsReplacer = strings.NewReplacer(commonInitialismsForReplacer...)
}

func toDBName(name string) string {
	if name == "" {
		return ""
	} else if v, ok := smap.Load(name); ok {
		return v.(string)
	}

	var (
		value                          = commonInitialismsReplacer.Replace(name)
		buf                            strings.Builder
		lastCase, nextCase, nextNumber bool // upper case == true
		curCase                        = value[0] <= 'Z' && value[0] >= 'A'
	)

	for i, v := range value[:len(value)-1] {
		nextCase = value[i+1] <= 'Z' && value[i+1] >= 'A'
		nextNumber = value[i+1] >= '0' && value[i+1] <= '9'

		if curCase {
			if lastCase && (nextCase || nextNumber) {
				buf.WriteRune(v + 32)
			} else {
				if i > 0 && value[i-1] != '_' && value[i+1] != '_' {
					buf.WriteByte('_')
				}
				buf.WriteRune(v + 32)
			}
		} else {
			buf.WriteRune(v)
		}

		lastCase = curCase
		curCase = nextCase
	}

	if curCase {
		if !lastCase && len(value) > 1 {
			buf.WriteByte('_')
		}
		buf.WriteByte(value[len(value)-1] + 32)
	} else {
		buf.WriteByte(value[len(value)-1])
	}

	result := buf.String()
	smap.Store(name, result)
	return result
}
