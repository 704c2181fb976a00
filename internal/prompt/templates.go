package prompt

// Task names a learnable prompt.
type Task string

const (
	TaskClassification Task = "classification"
	TaskExtraction     Task = "extraction"
	TaskImportance     Task = "importance"
	TaskUpdate         Task = "update"
	TaskRefine         Task = "refine"
	TaskRelevance      Task = "relevance"
	TaskRelevanceBatch Task = "relevance_batch"
)

// placeholders lists the names a task's template must and may contain.
type placeholders struct {
	required []string
	optional []string
}

var taskPlaceholders = map[Task]placeholders{
	TaskClassification: {required: []string{"text"}, optional: []string{"context"}},
	TaskExtraction:     {required: []string{"text"}, optional: []string{"memory_type", "context"}},
	TaskImportance:     {required: []string{"memory"}, optional: []string{"memory_type", "access_count", "context_goal"}},
	TaskUpdate:         {required: []string{"old_memory", "new_info"}},
	TaskRefine:         {required: []string{"old_memory", "new_info"}},
	TaskRelevance:      {required: []string{"query", "memory"}, optional: []string{"memory_type"}},
	TaskRelevanceBatch: {required: []string{"query", "candidates"}},
}

// Defaults returns the initial template for every task.
func Defaults() map[Task]string {
	return map[Task]string{
		TaskClassification: defaultClassification,
		TaskExtraction:     defaultExtraction,
		TaskImportance:     defaultImportance,
		TaskUpdate:         defaultUpdate,
		TaskRefine:         defaultRefine,
		TaskRelevance:      defaultRelevance,
		TaskRelevanceBatch: defaultRelevanceBatch,
	}
}

const defaultClassification = `You analyse memories for a memory system. Classify the text into one memory type:
1. episodic: a specific event tied to a time or place, usually a personal experience
2. semantic: an objective fact, concept, piece of knowledge or rule
3. procedural: how to do something; a skill, steps or a process

Text:
{text}

Caller context:
{context}

Reply with a JSON object only:
{"type": "episodic|semantic|procedural", "confidence": <number between 0 and 1>, "reasoning": "<one sentence>"}`

const defaultExtraction = `Restate the information worth remembering from the text below, in your own words.
Do not force it into a template; let the shape follow the content. Keep every name, date and number.

Memory type: {memory_type}
Caller context: {context}

Text:
{text}

Answer with the restated memory only.`

const defaultImportance = `Rate the importance of this memory the way human attention bias would.
People naturally attend to:
- emotionally intense experiences
- information relevant to a current goal
- content that repeats or is accessed often
- novel or surprising knowledge

Memory ({memory_type}):
{memory}

Times accessed: {access_count}
Current goal: {context_goal}

Reply with a single number between 0 and 1.`

const defaultUpdate = `Merge the new information into the existing memory so the result reads as one coherent statement.
Keep everything from both that is still true.

Existing memory:
{old_memory}

New information:
{new_info}

Answer with the merged memory only.`

const defaultRefine = `Correct and clarify the existing memory using the new information.
The new information is authoritative: where it contradicts the memory, the memory is wrong.

Existing memory:
{old_memory}

New information:
{new_info}

Answer with the corrected memory only.`

const defaultRelevance = `Judge how relevant the memory is to the query.

Query: {query}
Memory ({memory_type}): {memory}

Reply with a single number between 0 and 1 and nothing else.`

const defaultRelevanceBatch = `Score each candidate memory for relevance to the query.

Query: {query}

Candidates:
{candidates}

Reply with a JSON object mapping each candidate id to a number between 0 and 1, for example {"1": 0.8, "2": 0.1}.`

const optimizerTemplate = `You improve prompt templates for a memory system. The current template does not perform well enough.
Propose a better template that would produce the expected output for every example below.

Rules:
- Keep these placeholders exactly as written: %s
- You may also use: %s
- Do not introduce any other {placeholder}.

Current template:
%s

Examples (input and expected output):
%s
%s
Return only the new template text, with no explanation.`
