package dto

// Genesis lists the state a fresh ledger starts from. Applying it twice is a
// no-op.
type Genesis struct {
	Programs []GenesisProgram `yaml:"programs"`
	Accounts []GenesisAccount `yaml:"accounts"`
}

type GenesisProgram struct {
	Name    string `yaml:"name"`
	Address string `yaml:"address"`
}

type GenesisAccount struct {
	Address  string `yaml:"address"`
	Lamports string `yaml:"lamports"`
}
