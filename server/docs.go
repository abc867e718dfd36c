package server

// mnemonicDocs is the hover documentation for each assembler mnemonic.
var mnemonicDocs = map[string]string{
	"LOAD":  "Push the operand value onto the stack.",
	"JUMP":  "Continue at the operand instruction index.",
	"CJUMP": "Pop one value; continue at the operand index when it is `#f`.",
	"HALT":  "Stop and report the value on top of the stack.",

	"GET":    "Push a copy of the value at the operand depth (0 is the top).",
	"FORGET": "Pop and discard the top of the stack.",
	"FALL":   "Pop the top, discard the operand count of values beneath it, push it back.",

	"ADD1": "Pop an integer, push its successor.",
	"SUB1": "Pop an integer, push its predecessor.",
	"ADD":  "Pop the operand count of integers, push their sum (0 arguments yield 0).",
	"SUB":  "Pop the operand count of integers, push the first minus the sum of the rest (1 argument negates).",
	"MUL":  "Pop the operand count of integers, push their product (0 arguments yield 1).",

	"LT":       "Pop the operand count of integers, push whether each is less than the next.",
	"EQ":       "Pop the operand count of integers, push whether they are all equal.",
	"EQP":      "Pop the operand count of values, push whether their value words are all identical.",
	"ZEROP":    "Pop a value, push whether it is the integer 0.",
	"INTEGERP": "Pop a value, push whether it is an integer.",
	"BOOLEANP": "Pop a value, push whether it is a boolean.",
	"CHARP":    "Pop a value, push whether it is a character.",
	"NULLP":    "Pop a value, push whether it is the empty list.",
	"NOT":      "Pop a value, push `#t` when it is `#f` and `#f` otherwise.",

	"INTTOCHAR": "Pop an integer in 0..255, push the character with that code.",
	"CHARTOINT": "Pop a character, push its code as an integer.",

	"CONS": "Pop the cdr then the car, push a fresh pair.",
	"CAR":  "Pop a pair, push its car.",
	"CDR":  "Pop a pair, push its cdr.",

	"STRING":       "Pop the operand count of characters (last character on top), push a fresh string.",
	"STRINGREF":    "Pop an index then a string, push the character at that index.",
	"STRINGSET":    "Pop a character, an index and a string; store the character and push the unspecified value.",
	"STRINGAPPEND": "Pop the operand count of strings, push their concatenation.",
}
