package server

// HTMLPage is the browser UI. It sends microphone audio (or Chrome's fake
// audio device) to the server and shows the chain counters from /stats.
const HTMLPage = `<!DOCTYPE html>
<html>
<head>
    <title>rtpchain Interop</title>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            max-width: 800px;
            margin: 50px auto;
            padding: 20px;
            background: #f5f5f5;
        }
        .container {
            background: white;
            padding: 30px;
            border-radius: 8px;
            box-shadow: 0 2px 4px rgba(0,0,0,0.1);
        }
        h1 { color: #333; margin-bottom: 10px; }
        .subtitle { color: #666; margin-bottom: 30px; }
        button {
            background: #4285f4;
            color: white;
            border: none;
            padding: 12px 24px;
            border-radius: 4px;
            cursor: pointer;
            font-size: 16px;
            margin-right: 10px;
        }
        button:disabled { background: #ccc; cursor: not-allowed; }
        button.stop { background: #ea4335; }
        #status { margin: 20px 0; padding: 15px; border-radius: 4px; font-weight: 500; }
        .status-waiting { background: #fff3cd; color: #856404; }
        .status-connecting { background: #cce5ff; color: #004085; }
        .status-connected { background: #d4edda; color: #155724; }
        .status-error { background: #f8d7da; color: #721c24; }
        .status-closed { background: #e2e3e5; color: #383d41; }
        pre { background: #f1f3f4; padding: 15px; border-radius: 4px; overflow-x: auto; }
    </style>
</head>
<body>
    <div class="container">
        <h1>rtpchain Interop</h1>
        <p class="subtitle">Send audio through the server's interceptor chain</p>

        <div>
            <button id="startBtn" onclick="startCall()">Start Call</button>
            <button id="stopBtn" onclick="stopCall()" class="stop" disabled>Stop Call</button>
        </div>

        <div id="status" class="status-waiting">Status: Waiting to start</div>

        <pre id="stats">no connections</pre>
    </div>

    <script>
        let pc = null;
        let localStream = null;
        let statsTimer = null;

        // Read by the e2e tests.
        window.callState = 'idle';

        function setStatus(message, type) {
            const status = document.getElementById('status');
            status.textContent = 'Status: ' + message;
            status.className = 'status-' + type;
        }

        async function refreshStats() {
            try {
                const response = await fetch('/stats');
                const stats = await response.json();
                document.getElementById('stats').textContent = JSON.stringify(stats, null, 2);
            } catch (err) {
                document.getElementById('stats').textContent = 'stats unavailable: ' + err.message;
            }
        }

        async function startCall() {
            document.getElementById('startBtn').disabled = true;
            document.getElementById('stopBtn').disabled = false;
            window.callState = 'connecting';

            try {
                setStatus('Requesting microphone access...', 'connecting');
                localStream = await navigator.mediaDevices.getUserMedia({ audio: true, video: false });

                pc = new RTCPeerConnection({ iceServers: [] });
                localStream.getTracks().forEach(track => pc.addTrack(track, localStream));

                pc.onconnectionstatechange = () => {
                    const state = pc.connectionState;
                    if (state === 'connected') {
                        window.callState = 'connected';
                        setStatus('Connected, audio is flowing', 'connected');
                    } else if (state === 'failed' || state === 'closed') {
                        window.callState = state;
                        setStatus('Connection ' + state, state === 'failed' ? 'error' : 'closed');
                    }
                };

                await pc.setLocalDescription(await pc.createOffer());
                await new Promise(resolve => {
                    if (pc.iceGatheringState === 'complete') {
                        resolve();
                        return;
                    }
                    pc.onicegatheringstatechange = () => {
                        if (pc.iceGatheringState === 'complete') resolve();
                    };
                });

                setStatus('Sending offer to server...', 'connecting');
                const response = await fetch('/offer', {
                    method: 'POST',
                    headers: { 'Content-Type': 'application/json' },
                    body: JSON.stringify(pc.localDescription)
                });
                if (!response.ok) {
                    throw new Error('server returned ' + response.status);
                }
                await pc.setRemoteDescription(await response.json());

                statsTimer = setInterval(refreshStats, 1000);
            } catch (err) {
                window.callState = 'error';
                setStatus('Error: ' + err.message, 'error');
                console.error(err);
            }
        }

        function stopCall() {
            if (statsTimer) clearInterval(statsTimer);
            if (localStream) localStream.getTracks().forEach(track => track.stop());
            if (pc) pc.close();
            pc = null;
            localStream = null;
            window.callState = 'closed';

            document.getElementById('startBtn').disabled = false;
            document.getElementById('stopBtn').disabled = true;
            setStatus('Call ended', 'closed');
        }
    </script>
</body>
</html>
`
