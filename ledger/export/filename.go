package export

import (
	"fmt"
	"strings"

	"github.com/gosimple/slug"
	"github.com/h2316307-design/adhub-pro-sub009/ledger/common"
)

// FileName returns statement-<customer>-<yyyymmdd>.<ext>.
func FileName(stmt common.Statement, ext string) string {
	name := slug.Make(stmt.Customer.Name)
	if name == "" {
		name = slug.Make(stmt.Customer.ID)
	}
	if name == "" {
		name = "customer"
	}
	return fmt.Sprintf("statement-%s-%s.%s", name, stmt.GeneratedAt.Format("20060102"), strings.TrimPrefix(ext, "."))
}
