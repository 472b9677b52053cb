// SPDX-License-Identifier: MPL-2.0

package transform

import (
	"maps"
	"strings"

	"github.com/srcload/srcload/pkg/modspec"
)

// metaURLIdent stands in for import.meta.url in CommonJS output; the
// banner from BannerFor declares it.
const metaURLIdent = "__srcload_import_meta_url"

// commonJSDefine binds import.meta properties for code compiled to
// CommonJS, where import.meta does not exist.
var commonJSDefine = map[string]string{
	"import.meta.url":      metaURLIdent,
	"import.meta.dirname":  "__dirname",
	"import.meta.filename": "__filename",
}

// DefineFor returns the define table for the target format.
func DefineFor(format modspec.Format) map[string]string {
	if format != modspec.FormatCommonJS {
		return nil
	}
	return maps.Clone(commonJSDefine)
}

// BannerFor returns code to prepend to the output: the import.meta.url
// binding for CommonJS sources that read it.
func BannerFor(format modspec.Format, source string) string {
	if format != modspec.FormatCommonJS || !strings.Contains(source, "import.meta.url") {
		return ""
	}
	return "const " + metaURLIdent + ` = require("url").pathToFileURL(__filename).toString();`
}
