// Package tables holds the static table configurations: one named grid
// shape (role rows x room columns) per plannable view. Row and column
// identity is positional; blank role labels are spacer rows and two blank
// rows are distinct rows.
package tables

// Key identifies one table configuration
type Key string

const (
	Main      Key = "main"
	Emergency Key = "emergency"
	Weekend   Key = "weekend"
)

// Configuration is an immutable grid shape
type Configuration struct {
	Key         Key      `json:"key"`
	DisplayName string   `json:"display_name"`
	Roles       []string `json:"roles"`
	Rooms       []string `json:"rooms"`
}

var configurations = map[Key]Configuration{
	Main: {
		Key:         Main,
		DisplayName: "Hauptplan",
		Roles: []string{
			"Anästhesie Arzt 1", "Anästhesie Arzt 2", "AA Praktikant", "",
			"Anästhesie Pflege", "Anästhesie Pflege", "ATA", "ATA", "Praktikant", "",
			"", "", "",
			"OP Pflege", "OP Pflege", "OTAS", "OTAS", "Praktikant", "Praktikant",
			"", "", "", "",
		},
		Rooms: []string{
			"A1", "A2", "A3", "A4", "B1", "B2", "B3", "B4",
			"D1", "D2", "D3", "D4", "Kreißsaal", "Derma OP",
			"Medicum IV", "Medicum V", "Schleuse", "Externer Saal*",
			"Externer Saal *", "POBE",
		},
	},
	Emergency: {
		Key:         Emergency,
		DisplayName: "Notfallplan",
		Roles: []string{
			"Bereitschaftsarzt", "Notfall-Pflege", "ATA Bereitschaft", "",
			"OP-Koordination", "Springer", "",
		},
		Rooms: []string{"Notfall-OP", "Schockraum", "Hybrid-OP"},
	},
	Weekend: {
		Key:         Weekend,
		DisplayName: "Wochenendplan",
		Roles: []string{
			"Wochenenddienst Arzt", "Wochenenddienst Pflege", "Rufbereitschaft", "",
		},
		Rooms: []string{"A1", "B1", "D1", "Kreißsaal"},
	},
}

// Valid reports whether k names a defined configuration
func (k Key) Valid() bool {
	_, ok := configurations[k]
	return ok
}

// Get returns the configuration for k. Total for the three defined keys;
// callers validate k at the API boundary, an unknown key falls back to Main.
func Get(k Key) Configuration {
	if cfg, ok := configurations[k]; ok {
		return cfg
	}
	return configurations[Main]
}

// Keys lists the defined configuration keys in display order
func Keys() []Key {
	return []Key{Main, Emergency, Weekend}
}
