package board

// Sample returns the demo board used to seed a fresh reference server.
func Sample() Board {
	return Board{Cards: []Card{
		{
			ID:          "1",
			Title:       "Read the book",
			Description: "I should read the whole book",
			Status:      StatusInProgress,
			Tasks:       []Task{},
		},
		{
			ID:          "2",
			Title:       "write some code",
			Description: "Code along with the samples in the book",
			Status:      StatusTodo,
			Tasks: []Task{
				{ID: "1", Name: "ContactList Example", Done: true},
				{ID: "2", Name: "The kanban Example", Done: false},
				{ID: "3", Name: "My own experiments", Done: false},
			},
		},
	}}
}
