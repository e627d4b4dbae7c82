package shared

// Library permissions declared for RBAC.
const (
	PermViewLibraryItem    = "view_library_item"
	PermEditLibraryItem    = "edit_library_item"
	PermCreateLibraryItem  = "create_library_item"
	PermPublishLibraryItem = "publish_library_item"
)

// LibraryScopes lists all permissions related to the library module.
func LibraryScopes() []string {
	return []string{
		PermViewLibraryItem,
		PermEditLibraryItem,
		PermCreateLibraryItem,
		PermPublishLibraryItem,
	}
}
