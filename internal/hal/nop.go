package hal

// NopDisplay is the fallback when no LCD is attached.
type NopDisplay struct{}

func (NopDisplay) Show(string, string) {}

// NopScanner is the fallback when no NFC reader is attached.
type NopScanner struct{}

func (NopScanner) TryRead() (string, bool) { return "", false }

// NopButton is the fallback when no reset button is wired.
type NopButton struct{}

func (NopButton) Pressed() bool { return false }
