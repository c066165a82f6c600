package debianize

import "strings"

// TransformPackageName maps a crate name to its Debian source package
// name. Crates usually get a rust- prefix (rust-glob, rust-hamcrest),
// but crates wrapping system libraries from other languages use the
// common lib prefix with a -rust suffix instead (libopenssl-rust).
// Crates already named after the toolchain pass through unchanged.
func TransformPackageName(name string) string {
	if name == "libc" {
		return "libc-rust"
	}
	if strings.HasPrefix(name, "rustc") {
		return name
	}
	if base, ok := strings.CutSuffix(name, "-sys"); ok && base != "" {
		return "lib" + base + "-rust"
	}
	return "rust-" + name
}
