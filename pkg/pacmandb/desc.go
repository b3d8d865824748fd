package pacmandb

import (
	"bytes"
	"fmt"
	"strconv"
)

// Desc renders a package as the contents of a
// database "desc" file.
func Desc(pkg *Package) []byte {
	var buf bytes.Buffer

	write := func(name string, values ...string) {
		if len(values) == 0 || (len(values) == 1 && values[0] == "") {
			return
		}
		buf.WriteString(fmt.Sprintf("%%%s%%\n", name))
		for _, v := range values {
			buf.WriteString(v)
			buf.WriteString("\n")
		}
		buf.WriteString("\n")
	}

	write("FILENAME", pkg.Filename)
	write("NAME", pkg.Name)
	write("BASE", pkg.Base)
	write("VERSION", pkg.Version.String())
	write("DESC", pkg.Description)
	write("GROUPS", pkg.Groups...)
	write("CSIZE", strconv.FormatUint(pkg.CompressedSize, 10))
	write("ISIZE", strconv.FormatUint(pkg.InstalledSize, 10))
	write("MD5SUM", pkg.MD5)
	write("SHA256SUM", pkg.SHA256)
	write("URL", pkg.URL)
	write("LICENSE", pkg.Licenses...)
	write("ARCH", pkg.Arch)
	write("BUILDDATE", pkg.BuildDate)
	write("PACKAGER", pkg.Packager)
	write("REPLACES", pkg.Replaces...)
	write("CONFLICTS", pkg.Conflicts...)

	provides := make([]string, len(pkg.Provides))
	for i := range pkg.Provides {
		provides[i] = pkg.Provides[i].String()
	}
	write("PROVIDES", provides...)

	depends := make([]string, len(pkg.Depends))
	for i := range pkg.Depends {
		depends[i] = pkg.Depends[i].String()
	}
	write("DEPENDS", depends...)
	write("OPTDEPENDS", pkg.OptDepends...)
	write("MAKEDEPENDS", pkg.MakeDepends...)
	write("CHECKDEPENDS", pkg.CheckDepends...)

	return buf.Bytes()
}
