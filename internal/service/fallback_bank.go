package service

import (
	"fmt"
	"regexp"
	"skill_assess_backend/internal/model"
	"strings"
)

// PointsTable maps (variant, difficulty) to the default question value.
type PointsTable map[model.Variant]map[model.Difficulty]int

func DefaultPointsTable() PointsTable {
	return PointsTable{
		model.VariantMCQ:  {model.Beginner: 2, model.Intermediate: 3, model.Advanced: 4},
		model.VariantCode: {model.Beginner: 5, model.Intermediate: 7, model.Advanced: 10},
		model.VariantText: {model.Beginner: 3, model.Intermediate: 4, model.Advanced: 5},
	}
}

// NewPointsTable overlays configured values (keyed by plain strings, as read
// from config) on the defaults. Non-positive values are ignored.
func NewPointsTable(overrides map[string]map[string]int) PointsTable {
	table := DefaultPointsTable()
	for variant, tiers := range overrides {
		v := model.Variant(strings.ToLower(variant))
		if !v.Valid() {
			continue
		}
		for difficulty, pts := range tiers {
			d := model.Difficulty(strings.ToLower(difficulty))
			if d.Valid() && pts > 0 {
				table[v][d] = pts
			}
		}
	}
	return table
}

func (t PointsTable) Points(variant model.Variant, difficulty model.Difficulty) int {
	if p := t[variant][difficulty]; p > 0 {
		return p
	}
	return DefaultPointsTable()[model.VariantMCQ][model.Beginner]
}

const builtinDefaultTopic = "JavaScript"

type bankKey struct {
	topic   string
	variant model.Variant
}

// FallbackBank is the hand-authored question table used whenever the oracle
// cannot produce usable questions.
type FallbackBank struct {
	entries      map[bankKey][]model.Question
	topics       map[string]string // lower-cased -> canonical
	defaultTopic string
	points       PointsTable
}

func NewFallbackBank(points PointsTable, defaultTopic string) *FallbackBank {
	b := &FallbackBank{
		entries: make(map[bankKey][]model.Question),
		topics:  make(map[string]string),
		points:  points,
	}
	for topic, byVariant := range builtinBank {
		b.topics[strings.ToLower(topic)] = topic
		for variant, qs := range byVariant {
			entries := make([]model.Question, len(qs))
			for i, q := range qs {
				entries[i] = q.Clone()
				entries[i].Variant = variant
			}
			b.entries[bankKey{topic: topic, variant: variant}] = entries
		}
	}

	b.defaultTopic = builtinDefaultTopic
	if canonical, ok := b.topics[strings.ToLower(strings.TrimSpace(defaultTopic))]; ok {
		b.defaultTopic = canonical
	}
	return b
}

func (b *FallbackBank) Topics() []string {
	topics := make([]string, 0, len(b.topics))
	for _, t := range b.topics {
		topics = append(topics, t)
	}
	return topics
}

func (b *FallbackBank) resolve(topic string) string {
	if canonical, ok := b.topics[strings.ToLower(strings.TrimSpace(topic))]; ok {
		return canonical
	}
	return b.defaultTopic
}

// Record returns the bank question for output position i, cycling through
// the bank. ID is left for the caller to assign.
func (b *FallbackBank) Record(topic string, difficulty model.Difficulty, variant model.Variant, i int) model.Question {
	qs := b.entries[bankKey{topic: b.resolve(topic), variant: variant}]
	if len(qs) == 0 {
		qs = b.entries[bankKey{topic: builtinDefaultTopic, variant: variant}]
	}
	q := qs[i%len(qs)].Clone()
	q.Points = b.points.Points(variant, difficulty)
	return q
}

// Questions returns exactly n bank questions with IDs assigned.
func (b *FallbackBank) Questions(topic string, difficulty model.Difficulty, variant model.Variant, n int) []model.Question {
	out := make([]model.Question, n)
	for i := range out {
		out[i] = b.Record(topic, difficulty, variant, i)
	}
	assignQuestionIDs(out, topic, variant)
	return out
}

var whitespaceRun = regexp.MustCompile(`\s+`)

func topicSlug(topic string) string {
	return whitespaceRun.ReplaceAllString(strings.ToLower(strings.TrimSpace(topic)), "_")
}

func questionID(topic string, variant model.Variant, position int) string {
	return fmt.Sprintf("%s_%s_%d", topicSlug(topic), variant, position+1)
}

func assignQuestionIDs(qs []model.Question, topic string, variant model.Variant) {
	for i := range qs {
		qs[i].ID = questionID(topic, variant, i)
	}
}

var codeTemplates = map[string]string{
	"python":     "def solution():\n    # Your code here\n    pass",
	"javascript": "function solution() {\n    // Your code here\n}",
	"java":       "public static void solution() {\n    // Your code here\n}",
	"c++":        "void solution() {\n    // Your code here\n}",
	"go":         "func solution() {\n\t// Your code here\n}",
}

func codeTemplate(topic string) string {
	if t, ok := codeTemplates[strings.ToLower(strings.TrimSpace(topic))]; ok {
		return t
	}
	return codeTemplates["javascript"]
}

func bankMCQ(prompt string, a, b, c, d, correct, explanation string) model.Question {
	return model.Question{
		Prompt:       prompt,
		Options:      map[string]string{"A": a, "B": b, "C": c, "D": d},
		CorrectLabel: correct,
		Explanation:  explanation,
	}
}

func bankCode(prompt, template, solution string, cases ...model.TestCase) model.Question {
	return model.Question{
		Prompt:            prompt,
		Template:          template,
		ReferenceSolution: solution,
		TestCases:         cases,
	}
}

func bankText(prompt, reference string) model.Question {
	return model.Question{Prompt: prompt, ReferenceSolution: reference}
}

func bankCase(input, expected string) model.TestCase {
	return model.TestCase{Input: input, Expected: expected}
}

var builtinBank = map[string]map[model.Variant][]model.Question{
	"JavaScript": {
		model.VariantMCQ: {
			bankMCQ("How do you declare a variable in JavaScript?",
				"var x = 5", "variable x = 5", "v x = 5", "declare x = 5",
				"A", "The 'var' keyword is used to declare variables in JavaScript"),
			bankMCQ("What does the === operator do in JavaScript?",
				"Assigns a value", "Compares value only", "Compares value and type", "Creates a variable",
				"C", "The === operator performs strict equality comparison, checking both value and type"),
			bankMCQ("Which method adds an element to the end of an array?",
				"push()", "add()", "append()", "insert()",
				"A", "The push() method adds elements to the end of an array"),
			bankMCQ("How do you create a function in JavaScript?",
				"function myFunction() {}", "def myFunction() {}", "create myFunction() {}", "func myFunction() {}",
				"A", "JavaScript uses the 'function' keyword to create functions"),
		},
		model.VariantCode: {
			bankCode("Write a function that greets a person by name",
				"function greet(name) {\n    // Your code here\n}",
				"function greet(name) {\n    return 'Hello, ' + name + '!';\n}",
				bankCase("greet('Alice')", "'Hello, Alice!'"), bankCase("greet('Bob')", "'Hello, Bob!'")),
			bankCode("Write a function that doubles a number",
				"function double(num) {\n    // Your code here\n}",
				"function double(num) {\n    return num * 2;\n}",
				bankCase("double(5)", "10"), bankCase("double(-3)", "-6")),
			bankCode("Write a function that filters even numbers from an array",
				"function filterEvens(numbers) {\n    // Your code here\n}",
				"function filterEvens(numbers) {\n    return numbers.filter(num => num % 2 === 0);\n}",
				bankCase("filterEvens([1, 2, 3, 4, 5, 6])", "[2, 4, 6]"), bankCase("filterEvens([1, 3, 5])", "[]")),
		},
		model.VariantText: {
			bankText("Explain what JavaScript is used for.",
				"JavaScript adds behaviour to web pages in the browser and, through runtimes such as Node.js, runs servers, tooling and scripts."),
			bankText("Explain what closures are in JavaScript.",
				"A closure is a function bundled with references to the variables of the scope it was created in, so it can keep using them after that scope has returned."),
			bankText("Explain the difference between let, const and var.",
				"var is function scoped and hoisted; let and const are block scoped; const bindings cannot be reassigned."),
		},
	},
	"Python": {
		model.VariantMCQ: {
			bankMCQ("Which of the following is the correct way to create a list in Python?",
				"my_list = []", "my_list = {}", "my_list = ()", "my_list = <>",
				"A", "Square brackets [] are used to create lists in Python"),
			bankMCQ("What is the output of print(type(5.0)) in Python?",
				"<class 'int'>", "<class 'float'>", "<class 'number'>", "<class 'double'>",
				"B", "5.0 is a floating-point number, so type() returns <class 'float'>"),
			bankMCQ("How do you create a comment in Python?",
				"// This is a comment", "/* This is a comment */", "# This is a comment", "<!-- This is a comment -->",
				"C", "Python uses # for single-line comments"),
			bankMCQ("What is the correct way to define a function in Python?",
				"def function_name():", "function function_name():", "define function_name():", "func function_name():",
				"A", "Python uses the 'def' keyword to define functions"),
		},
		model.VariantCode: {
			bankCode("Write a function that takes two numbers and returns their sum",
				"def add_numbers(a, b):\n    # Your code here\n    pass",
				"def add_numbers(a, b):\n    return a + b",
				bankCase("add_numbers(2, 3)", "5"), bankCase("add_numbers(-1, 1)", "0")),
			bankCode("Write a function that checks if a number is even",
				"def is_even(number):\n    # Your code here\n    pass",
				"def is_even(number):\n    return number % 2 == 0",
				bankCase("is_even(4)", "True"), bankCase("is_even(7)", "False")),
			bankCode("Write a function that finds the maximum number in a list",
				"def find_max(numbers):\n    # Your code here\n    pass",
				"def find_max(numbers):\n    return max(numbers)",
				bankCase("find_max([1, 5, 3, 9, 2])", "9"), bankCase("find_max([-1, -5, -2])", "-1")),
		},
		model.VariantText: {
			bankText("Explain the difference between a list and a tuple in Python.",
				"Lists are mutable sequences; tuples are immutable, hashable when their items are, and often used for fixed records."),
			bankText("Explain what a Python decorator is.",
				"A decorator is a callable that takes a function and returns a replacement, used to wrap behaviour around the original without changing its code."),
			bankText("Explain what the Global Interpreter Lock is.",
				"The GIL is a mutex in CPython that lets only one thread execute Python bytecode at a time, limiting CPU-bound thread parallelism."),
		},
	},
	"Go": {
		model.VariantMCQ: {
			bankMCQ("Which keyword starts a new goroutine?",
				"go", "async", "spawn", "thread",
				"A", "Prefixing a function call with 'go' runs it in a new goroutine"),
			bankMCQ("What is the zero value of a map declared with var m map[string]int?",
				"An empty map", "nil", "0", "It does not compile",
				"B", "Maps are reference types whose zero value is nil; writing to a nil map panics"),
			bankMCQ("How does a function usually report failure in Go?",
				"By throwing an exception", "By returning an error value", "By calling exit()", "By setting errno",
				"B", "Go functions return an error as their last result"),
			bankMCQ("Which statement defers a call until the surrounding function returns?",
				"finally", "defer", "after", "later",
				"B", "defer schedules a call to run when the surrounding function returns"),
		},
		model.VariantCode: {
			bankCode("Write a function that reverses a string",
				"func Reverse(s string) string {\n\t// Your code here\n}",
				"func Reverse(s string) string {\n\tr := []rune(s)\n\tfor i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {\n\t\tr[i], r[j] = r[j], r[i]\n\t}\n\treturn string(r)\n}",
				bankCase(`Reverse("abc")`, `"cba"`), bankCase(`Reverse("")`, `""`)),
			bankCode("Write a function that sums a slice of integers",
				"func Sum(nums []int) int {\n\t// Your code here\n}",
				"func Sum(nums []int) int {\n\ttotal := 0\n\tfor _, n := range nums {\n\t\ttotal += n\n\t}\n\treturn total\n}",
				bankCase("Sum([]int{1, 2, 3})", "6"), bankCase("Sum(nil)", "0")),
			bankCode("Write a function that counts word occurrences in a string",
				"func WordCount(s string) map[string]int {\n\t// Your code here\n}",
				"func WordCount(s string) map[string]int {\n\tcounts := make(map[string]int)\n\tfor _, w := range strings.Fields(s) {\n\t\tcounts[w]++\n\t}\n\treturn counts\n}",
				bankCase(`WordCount("a b a")`, `map[a:2 b:1]`), bankCase(`WordCount("")`, `map[]`)),
		},
		model.VariantText: {
			bankText("Explain the difference between a buffered and an unbuffered channel.",
				"An unbuffered send blocks until a receiver is ready; a buffered channel accepts sends until its buffer is full."),
			bankText("Explain what an interface is in Go and how a type satisfies it.",
				"An interface is a set of method signatures; any type whose method set includes them satisfies it implicitly, without a declaration."),
			bankText("Explain what context.Context is used for.",
				"A Context carries deadlines, cancellation signals and request-scoped values across API boundaries and goroutines."),
		},
	},
}
