// Package sparql compiles normalized criteria trees into SPARQL WHERE
// fragments. Leaves become graph patterns named by position so that
// variables of different rows, groups and nesting levels never collide,
// AND runs join with ' .\n ' and OR runs union.
package sparql

import "regexp"

// InstanceVariable is the subject variable every generated pattern binds.
// The backend substitutes the matched instances through it.
const InstanceVariable = "instance"

// PermissionsBlock is the placeholder the backend replaces with the
// permission filtering patterns of the current user.
const PermissionsBlock = "permissions_block"

// AdditionalQueryBlock is appended once at the very end of a full query.
const AdditionalQueryBlock = " $" + PermissionsBlock + "$" + InstanceVariable + " "

var (
	instanceSubjectPattern = regexp.MustCompile(`\s\?` + InstanceVariable + `\s`)
	instanceNamePattern    = regexp.MustCompile(`\$` + InstanceVariable + `\s`)
)

// ReplaceInnerInstanceNames renames the instance variable of a nested
// query by appending the positional postfix, both as pattern subject and
// in the permissions placeholder. Without the rename a nested query
// would capture the outer query's subject.
func ReplaceInnerInstanceNames(query, postfix string) string {
	subject := " ?" + InstanceVariable + postfix + " "
	name := "$" + InstanceVariable + postfix + " "
	query = instanceSubjectPattern.ReplaceAllLiteralString(query, subject)
	return instanceNamePattern.ReplaceAllLiteralString(query, name)
}

// ContextEntry is one element of the navigation breadcrumb the search
// was opened from. Context placeholder values resolve against it.
type ContextEntry struct {
	ID   string `json:"id" yaml:"id"`
	Type string `json:"type" yaml:"type"`
}
