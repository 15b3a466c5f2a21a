package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/statcompass/statcompass/pkg/model"
)

// GenerateInteractiveHTML creates a self-contained HTML file with a
// clickable rendering of the tree: nodes expand and collapse, and selecting
// a recommendation highlights its path back to the root. No external assets
// are referenced so the file works offline.
func GenerateInteractiveHTML(data model.TreeData, title, outputPath string) (string, error) {
	if err := data.Validate(); err != nil {
		return "", fmt.Errorf("invalid tree: %w", err)
	}

	dataJSON, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("marshal tree data: %w", err)
	}

	if title == "" {
		title = "Decision Tree"
	}
	if !strings.HasSuffix(strings.ToLower(outputPath), ".html") {
		outputPath = strings.TrimSuffix(outputPath, filepath.Ext(outputPath)) + ".html"
	}

	html := generateTreeHTML(title, string(dataJSON), len(data))

	if dir := filepath.Dir(outputPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("create dir: %w", err)
		}
	}
	if err := os.WriteFile(outputPath, []byte(html), 0o644); err != nil {
		return "", err
	}
	return outputPath, nil
}

func generateTreeHTML(title, treeDataJSON string, nodeCount int) string {
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>%s | statcompass</title>
    <style>
        :root {
            --bg: #282a36;
            --bg-secondary: #44475a;
            --bg-tertiary: #21222c;
            --fg: #f8f8f2;
            --fg-muted: #6272a4;
            --purple: #bd93f9;
            --pink: #ff79c6;
            --cyan: #8be9fd;
            --green: #50fa7b;
            --shadow: 0 4px 20px rgba(0,0,0,0.5);
        }
        * { box-sizing: border-box; margin: 0; padding: 0; }
        body {
            font-family: monospace;
            background: var(--bg);
            color: var(--fg);
            height: 100vh;
            display: flex;
            flex-direction: column;
            overflow: hidden;
        }
        header {
            background: linear-gradient(135deg, var(--bg-tertiary), var(--bg-secondary));
            padding: 0.6rem 1.25rem;
            display: flex;
            justify-content: space-between;
            align-items: center;
            border-bottom: 2px solid var(--purple);
            box-shadow: var(--shadow);
        }
        header h1 { font-size: 1rem; color: var(--purple); }
        header .meta { font-size: 0.75rem; color: var(--fg-muted); }
        main { flex: 1; display: flex; overflow: hidden; }
        #tree { flex: 1; overflow: auto; padding: 1.5rem; }
        #detail {
            width: 340px;
            border-left: 1px solid var(--bg-secondary);
            padding: 1.25rem;
            overflow: auto;
        }
        #detail h2 { color: var(--cyan); font-size: 0.95rem; margin-bottom: 0.75rem; }
        #detail .notes { font-size: 0.8rem; line-height: 1.5; white-space: pre-wrap; }
        #detail .crumb { font-size: 0.7rem; color: var(--fg-muted); margin-top: 1rem; }
        ul.branch { list-style: none; padding-left: 1.5rem; }
        li.node { margin: 0.35rem 0; }
        .box {
            display: inline-block;
            background: var(--bg-secondary);
            border: 1px solid var(--fg-muted);
            border-radius: 6px;
            padding: 0.35rem 0.7rem;
            cursor: pointer;
            font-size: 0.85rem;
        }
        .box:hover { border-color: var(--cyan); }
        .box.leaf { background: var(--bg-tertiary); color: var(--green); }
        .box.on-path { border-color: var(--pink); border-width: 2px; }
        .answer { color: var(--fg-muted); font-size: 0.75rem; margin-right: 0.4rem; }
        .collapsed-marker { color: var(--fg-muted); margin-left: 0.4rem; }
    </style>
</head>
<body>
    <header>
        <h1>%s</h1>
        <div class="meta">%d nodes · generated %s</div>
    </header>
    <main>
        <div id="tree"></div>
        <div id="detail">
            <h2>Pick a recommendation</h2>
            <div class="notes">Click through the questions on the left. Leaves show the suggested statistical test here.</div>
        </div>
    </main>
    <script>
    const TREE = %s;
    const ROOT = "start";
    const expanded = new Set([ROOT]);
    let selected = null;

    function pathTo(id) {
        // Breadth-first parent search; the data may contain joins or cycles,
        // so track visited nodes.
        const parent = {};
        const seen = new Set([ROOT]);
        const queue = [ROOT];
        while (queue.length) {
            const cur = queue.shift();
            if (cur === id) break;
            for (const opt of (TREE[cur] && TREE[cur].options) || []) {
                const next = opt.next_node_id;
                if (!TREE[next] || seen.has(next)) continue;
                seen.add(next);
                parent[next] = cur;
                queue.push(next);
            }
        }
        if (id !== ROOT && !(id in parent)) return [];
        const path = [id];
        while (path[0] !== ROOT) path.unshift(parent[path[0]]);
        return path;
    }

    function render() {
        const container = document.getElementById('tree');
        container.innerHTML = '';
        const onPath = new Set(selected ? pathTo(selected) : []);
        container.appendChild(renderNode(ROOT, '', new Set(), onPath));
    }

    function renderNode(id, answer, onStack, onPath) {
        const li = document.createElement('li');
        li.className = 'node';
        const node = TREE[id];

        if (answer) {
            const a = document.createElement('span');
            a.className = 'answer';
            a.textContent = answer + ' →';
            li.appendChild(a);
        }

        const box = document.createElement('span');
        const isLeaf = !node || !(node.options || []).length;
        box.className = 'box' + (isLeaf ? ' leaf' : '') + (onPath.has(id) ? ' on-path' : '');
        box.textContent = node
            ? (isLeaf && node.result ? node.result.test : node.question || id)
            : id;
        box.onclick = () => click(id, isLeaf);
        li.appendChild(box);

        if (!node || onStack.has(id)) return wrap(li);

        if (!isLeaf) {
            if (!expanded.has(id)) {
                const marker = document.createElement('span');
                marker.className = 'collapsed-marker';
                marker.textContent = '[+' + node.options.length + ']';
                li.appendChild(marker);
            } else {
                const ul = document.createElement('ul');
                ul.className = 'branch';
                onStack.add(id);
                for (const opt of node.options) {
                    ul.appendChild(renderNode(opt.next_node_id, opt.label, onStack, onPath));
                }
                onStack.delete(id);
                li.appendChild(ul);
            }
        }
        return wrap(li);
    }

    function wrap(li) {
        const ul = document.createElement('ul');
        ul.className = 'branch';
        ul.appendChild(li);
        return ul;
    }

    function click(id, isLeaf) {
        if (isLeaf) {
            selected = id;
            showDetail(id);
        } else if (id !== ROOT) {
            // The root stays expanded; everything else toggles.
            if (expanded.has(id)) {
                expanded.delete(id);
                // Collapse cascades: nothing below stays expanded.
                for (const other of [...expanded]) {
                    if (other !== ROOT && pathTo(other).includes(id)) expanded.delete(other);
                }
            } else {
                expanded.add(id);
            }
        }
        render();
    }

    function showDetail(id) {
        const node = TREE[id];
        const detail = document.getElementById('detail');
        const test = node && node.result ? node.result.test : id;
        const notes = node && node.result ? (node.result.notes || '') : '';
        const crumb = pathTo(id).join(' › ');
        detail.innerHTML = '<h2></h2><div class="notes"></div><div class="crumb"></div>';
        detail.querySelector('h2').textContent = test;
        detail.querySelector('.notes').textContent = notes;
        detail.querySelector('.crumb').textContent = crumb;
    }

    render();
    </script>
</body>
</html>`, title, title, nodeCount, timestamp, treeDataJSON)
}
