package ai

const ExtractPrompt = `
# Task Context
You are an expert academic research assistant. Extract entities and relationships from research papers.

# Background Data
- **Entity_types:** [%s]
- **Relationship_types:** [%s]
- **Paper:** [%s]

# Detailed Task Description & Rules
Focus on extracting:
- Research concepts, methods, techniques, algorithms
- Authors, institutions, publications, conferences, journals
- Citations and references between papers
- Key findings, conclusions, contributions, hypotheses
- Technical terms, domain-specific entities, mathematical concepts
- Datasets, experiments, results, evaluations

## Entity Extraction
- For each entity, determine the most appropriate type from the entity types above.
- Use the name of the entity as it appears in the text as its id (e.g. "BERT", "Ashish Vaswani").
- Do not invent entities that are not mentioned in the text.

## Relationship Extraction
- Use relationship types from the list above, written in UPPER_SNAKE_CASE.
- Every relationship must reference the id and type of its source and target entity.
- Only extract relationships that are stated or clearly implied by the text.

# Output Formatting
Return a single valid JSON object in this structure:
{
  "nodes": [
    {"id": "string", "type": "string"}
  ],
  "relationships": [
    {
      "source_node_id": "string",
      "source_node_type": "string",
      "target_node_id": "string",
      "target_node_type": "string",
      "type": "string"
    }
  ]
}
Do not include any commentary or text outside of the JSON.
Always return valid JSON, even if nothing is found (use empty arrays in that case).

# Text to analyze
%s
`

// CypherPrompt asks for a single read-only Cypher statement over the given
// schema.
const CypherPrompt = `Task: Generate a Cypher statement to query a graph database.
Instructions:
Use only the provided node labels, relationship types and properties in the schema.
Do not use any other relationship types or properties that are not provided.
Only generate read queries (MATCH, OPTIONAL MATCH, WITH, WHERE, RETURN, ORDER BY, LIMIT).
Entity names are stored in the "id" and "name" properties.
Schema:
%s
Note: Do not include any explanations or apologies in your responses.
Do not respond to any questions that might ask anything else than for you to construct a Cypher statement.
Do not include any text except the generated Cypher statement.

The question is:
%s`

const QAPrompt = `You are an expert research assistant analyzing academic papers.
Answer questions based ONLY on the provided context from research papers.

CRITICAL: Always include specific references to source papers in your answers.
Format references as: [Source: PaperName]

Context: %s
Question: %s

Provide a comprehensive answer with proper citations:`

// FallbackPrompt is used when the graph schema is unavailable and rows come
// from a canned query.
const FallbackPrompt = "Based on the following graph data, answer the question:\n\nData: %s\nQuestion: %s\n\nAnswer:"

const SummaryPrompt = `Provide a comprehensive summary of all research papers in the knowledge graph.
Include:
1. Main research themes and topics covered
2. Key findings and conclusions across papers
3. Relationships and connections between different research works
4. Notable authors, institutions, and publications
5. Research gaps and potential future directions
6. Methodologies and techniques used across papers

Always reference specific papers using: [Source: PaperName]`

const NoDataAnswer = "I don't know. The knowledge graph does not contain information to answer this question."
