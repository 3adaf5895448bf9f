package model

// All lists every persisted model in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Item{},
		&ItemImage{},
		&Point{},
		&PointOrder{},
		&OrderItem{},
		&Donation{},
		&DonationItem{},
		&EcoAction{},
		&EcoActionLog{},
		&Qna{},
		&QnaComment{},
	}
}
