package morse

// WordGap is the pattern stored for the space character. It carries no
// elements; the sender turns it into an inter-word gap.
const WordGap = " "

// Entry pairs a character with its dot/dash pattern
type Entry struct {
	Char    rune
	Pattern string
}

// table is the transmit alphabet, uppercase only
var table = []Entry{
	// Letters
	{'A', ".-"},
	{'B', "-..."},
	{'C', "-.-."},
	{'D', "-.."},
	{'E', "."},
	{'F', "..-."},
	{'G', "--."},
	{'H', "...."},
	{'I', ".."},
	{'J', ".---"},
	{'K', "-.-"},
	{'L', ".-.."},
	{'M', "--"},
	{'N', "-."},
	{'O', "---"},
	{'P', ".--."},
	{'Q', "--.-"},
	{'R', ".-."},
	{'S', "..."},
	{'T', "-"},
	{'U', "..-"},
	{'V', "...-"},
	{'W', ".--"},
	{'X', "-..-"},
	{'Y', "-.--"},
	{'Z', "--.."},

	// Numbers
	{'0', "-----"},
	{'1', ".----"},
	{'2', "..---"},
	{'3', "...--"},
	{'4', "....-"},
	{'5', "....."},
	{'6', "-...."},
	{'7', "--..."},
	{'8', "---.."},
	{'9', "----."},

	// Punctuation
	{'.', ".-.-.-"},
	{',', "--..--"},
	{'?', "..--.."},
	{'\'', ".----."},
	{'!', "-.-.--"},
	{'/', "-..-."},
	{'(', "-.--."},
	{')', "-.--.-"},
	{'&', ".-..."},
	{':', "---..."},
	{';', "-.-.-."},
	{'=', "-...-"},
	{'+', ".-.-."},
	{'-', "-....-"},
	{'_', "..--.-"},
	{'"', ".-..-."},
	{'$', "...-..-"},
	{'@', ".--.-."},

	{' ', WordGap},
}

var (
	byChar    = make(map[rune]string, len(table))
	byPattern = make(map[string]rune, len(table))
)

func init() {
	for _, e := range table {
		byChar[e.Char] = e.Pattern
		if e.Pattern != WordGap {
			byPattern[e.Pattern] = e.Char
		}
	}
}

// Lookup returns the pattern for an uppercase character
func Lookup(r rune) (string, bool) {
	p, ok := byChar[r]
	return p, ok
}

// Decode converts a pattern back to its character
func Decode(pattern string) (rune, bool) {
	r, ok := byPattern[pattern]
	return r, ok
}

// Table returns a copy of the alphabet in table order
func Table() []Entry {
	out := make([]Entry, len(table))
	copy(out, table)
	return out
}
