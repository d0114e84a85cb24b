package content

import (
	"jsonapiq/internal/metadata"
)

// NewRegistry returns the metadata registry for every served entity type.
func NewRegistry() *metadata.Registry {
	reg := metadata.NewRegistry()

	node := metadata.InspectEntity(Node{}, "node", "Content", "node_field_data", "nid")
	node.BundleKey = "type"
	node.Bundles = append(node.Bundles,
		metadata.InspectBundle(Article{}, "article", "Article"),
		metadata.InspectBundle(Page{}, "page", "Basic page"),
	)
	reg.Register(node)

	user := metadata.InspectEntity(User{}, "user", "User", "users_field_data", "uid")
	user.Bundles = append(user.Bundles, metadata.BundleDef{Name: "user", Label: "User"})
	reg.Register(user)

	role := metadata.InspectEntity(UserRole{}, "user_role", "Role", "user_role", "id")
	role.Bundles = append(role.Bundles, metadata.BundleDef{Name: "user_role", Label: "Role"})
	reg.Register(role)

	term := metadata.InspectEntity(Term{}, "taxonomy_term", "Taxonomy term", "taxonomy_term_field_data", "tid")
	term.BundleKey = "vid"
	term.Bundles = append(term.Bundles,
		metadata.BundleDef{Name: "tags", Label: "Tags"},
		metadata.BundleDef{Name: "categories", Label: "Categories"},
	)
	reg.Register(term)

	vocab := metadata.InspectEntity(Vocabulary{}, "taxonomy_vocabulary", "Vocabulary", "taxonomy_vocabulary", "vid")
	vocab.Bundles = append(vocab.Bundles, metadata.BundleDef{Name: "taxonomy_vocabulary", Label: "Vocabulary"})
	reg.Register(vocab)

	file := metadata.InspectEntity(File{}, "file", "File", "file_managed", "fid")
	file.Bundles = append(file.Bundles, metadata.BundleDef{Name: "file", Label: "File"})
	reg.Register(file)

	return reg
}
