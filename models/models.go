package models

// All lists the persisted models in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&SocialAccount{},
		&Category{},
		&Tag{},
		&Post{},
		&Comment{},
		&UploadedFile{},
		&PageView{},
	}
}
